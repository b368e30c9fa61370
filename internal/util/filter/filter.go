// Package filter selects media items and local files by name pattern.
// The CLI uses it for `upload --include/--exclude` and for narrowing
// `media list` and `media download`.
package filter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/distrohub/mediadesk/internal/models"
)

// Config holds filter configuration. The zero value matches everything.
type Config struct {
	// Include patterns (glob-style) matched against the base name.
	// Empty means include all.
	Include []string

	// Exclude patterns (glob-style). Takes precedence over Include.
	Exclude []string

	// Search terms, case-insensitive substrings; all must match.
	Search []string

	// PathInclude patterns match the path relative to the upload root.
	// "**" matches any number of directories.
	PathInclude []string
}

// IsZero reports whether the config filters nothing.
func (c Config) IsZero() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0 && len(c.Search) == 0 && len(c.PathInclude) == 0
}

// Match reports whether a file with the given base name passes the name
// filters.
func (c Config) Match(name string) bool {
	for _, p := range c.Exclude {
		if ok, _ := filepath.Match(p, name); ok {
			return false
		}
	}
	if len(c.Include) > 0 {
		included := false
		for _, p := range c.Include {
			if ok, _ := filepath.Match(p, name); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	lower := strings.ToLower(name)
	for _, term := range c.Search {
		if !strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// MatchPath reports whether rel (slash or OS separated) passes the path
// filters and its base name passes the name filters.
func (c Config) MatchPath(rel string) bool {
	rel = filepath.ToSlash(rel)
	if !c.Match(pathBase(rel)) {
		return false
	}
	if len(c.PathInclude) == 0 {
		return true
	}
	for _, p := range c.PathInclude {
		if MatchGlob(filepath.ToSlash(p), rel) {
			return true
		}
	}
	return false
}

func pathBase(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// ApplyToMedia returns the items whose names pass the filters.
func ApplyToMedia(items []models.MediaItem, c Config) []models.MediaItem {
	if c.IsZero() {
		return items
	}
	out := make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if c.Match(item.Name) {
			out = append(out, item)
		}
	}
	return out
}

// CollectFiles expands roots into regular files. Files named directly
// are kept when they pass the name filters; directories are listed (and
// walked when recursive) with paths matched relative to the directory.
// Hidden entries inside directories are skipped. The result is sorted
// per root and has no duplicates.
func CollectFiles(roots []string, recursive bool, c Config) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", root, err)
		}
		if !info.IsDir() {
			if c.Match(filepath.Base(root)) {
				add(root)
			}
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, _ := filepath.Rel(root, p)
			if c.MatchPath(rel) {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot list %s: %w", root, err)
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return out, nil
}

// MatchGlob matches a slash-separated path against pattern, where each
// segment is a filepath.Match glob and a "**" segment matches zero or
// more segments.
func MatchGlob(pattern, path string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, err := filepath.Match(pat[0], segs[0]); err != nil || !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

// ParsePatternList parses a comma-separated list of patterns.
// Example: "*.png,*.jpg" -> []string{"*.png", "*.jpg"}
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}
	parts := strings.Split(patternStr, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
