// Package paths plans local destinations for media downloads.
package paths

import (
	"fmt"
	"path/filepath"
)

// MediaDownload is one media item bound to a local destination.
type MediaDownload struct {
	MediaID   string
	Name      string
	URL       string
	LocalPath string
	Size      int64
}

// ResolveCollisions makes every LocalPath unique. Items that share a path
// get their media id inserted before the extension:
//
//	logo.png, logo.png -> logo_64f1a.png, logo_64f1b.png
//
// It modifies files in place and returns it together with the number of
// items that had to be renamed.
func ResolveCollisions(files []MediaDownload) ([]MediaDownload, int) {
	byPath := make(map[string][]int)
	for i, f := range files {
		byPath[f.LocalPath] = append(byPath[f.LocalPath], i)
	}

	renamed := 0
	for path, indices := range byPath {
		if len(indices) < 2 {
			continue
		}
		ext := filepath.Ext(path)
		base := path[:len(path)-len(ext)]
		for _, i := range indices {
			files[i].LocalPath = fmt.Sprintf("%s_%s%s", base, files[i].MediaID, ext)
			renamed++
		}
	}
	return files, renamed
}
