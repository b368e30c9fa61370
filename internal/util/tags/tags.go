// Package tags provides media tag normalization and an insertion-ordered tag set.
package tags

import "strings"

// NormalizeTags trims whitespace, drops empty strings and removes duplicates,
// keeping first-seen order.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !seen[tag] {
			seen[tag] = true
			result = append(result, tag)
		}
	}
	return result
}

// ParseCommaSeparated splits a comma-separated string into normalized tags.
func ParseCommaSeparated(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(input, ","))
}

// Set is an insertion-ordered set of tags. Add and Remove are idempotent.
// The zero value is an empty set.
type Set struct {
	order []string
	index map[string]int
}

// NewSet builds a set from tags, normalizing them.
func NewSet(tags ...string) *Set {
	s := &Set{}
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

// Add inserts tag at the end unless it is blank or already present.
// It reports whether the set changed.
func (s *Set) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || s.Has(tag) {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[tag] = len(s.order)
	s.order = append(s.order, tag)
	return true
}

// Remove deletes tag, keeping the order of the rest.
// It reports whether the set changed.
func (s *Set) Remove(tag string) bool {
	tag = strings.TrimSpace(tag)
	i, ok := s.index[tag]
	if !ok {
		return false
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.index, tag)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j]] = j
	}
	return true
}

// Has reports whether tag is in the set.
func (s *Set) Has(tag string) bool {
	_, ok := s.index[strings.TrimSpace(tag)]
	return ok
}

// Len returns the number of tags.
func (s *Set) Len() int {
	return len(s.order)
}

// Slice returns a copy of the tags in insertion order. Never nil.
func (s *Set) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Equal reports whether s holds exactly tags in the same order.
func (s *Set) Equal(tags []string) bool {
	if len(tags) != len(s.order) {
		return false
	}
	for i, t := range tags {
		if s.order[i] != t {
			return false
		}
	}
	return true
}
