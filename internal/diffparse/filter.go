package diffparse

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// UnknownExtension is the grouping bucket for extension-less files.
const UnknownExtension = "unknown"

// GroupByExtension buckets changes by extension. Extension-less files land in
// the UnknownExtension bucket. Order within each bucket follows input order.
func GroupByExtension(changes []ParsedChange) map[string][]ParsedChange {
	groups := make(map[string][]ParsedChange)
	for _, c := range changes {
		key := c.Extension
		if key == "" {
			key = UnknownExtension
		}
		groups[key] = append(groups[key], c)
	}
	return groups
}

// FilterByChangeType returns the changes with the given type, preserving
// input order.
func FilterByChangeType(changes []ParsedChange, ct ChangeType) []ParsedChange {
	var filtered []ParsedChange
	for _, c := range changes {
		if c.ChangeType == ct {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// FilterByExtension returns the changes with the given extension, preserving
// input order. Matching is case-insensitive and tolerates a leading dot.
func FilterByExtension(changes []ParsedChange, ext string) []ParsedChange {
	want := strings.ToLower(strings.TrimPrefix(ext, "."))
	var filtered []ParsedChange
	for _, c := range changes {
		if c.Extension == want {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// FilterByPathPatterns keeps changes whose file path matches any include glob
// and no exclude glob. Empty include means "everything". Patterns use
// doublestar syntax ("src/**/*.go"). Malformed patterns simply never match.
func FilterByPathPatterns(changes []ParsedChange, include, exclude []string) []ParsedChange {
	var filtered []ParsedChange
	for _, c := range changes {
		p := strings.ReplaceAll(c.File, "\\", "/")
		if !matchesAny(include, p, true) {
			continue
		}
		if matchesAny(exclude, p, false) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// matchesAny reports whether path matches at least one pattern. emptyResult
// is returned for an empty pattern list.
func matchesAny(patterns []string, path string, emptyResult bool) bool {
	if len(patterns) == 0 {
		return emptyResult
	}
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// SortByComplexity orders changes most complex first. The sort is stable so
// equally complex changes keep their input order.
func SortByComplexity(changes []ParsedChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Complexity > changes[j].Complexity
	})
}
