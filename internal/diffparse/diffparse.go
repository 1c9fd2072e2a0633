// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package diffparse turns raw source-control change records and unified diff
// text into structured, classifiable per-file changes. All functions are pure
// and safe for concurrent use.
package diffparse

import (
	"fmt"
	"math"
	"path"
	"strings"
)

// ChangeType classifies what happened to a file in a change set.
type ChangeType string

// Change classifications. Untracked files are treated as added because for
// review purposes they are newly introduced content.
const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
)

// FileChange is a raw per-file record as produced by a source-control client.
// Status carries the client's status word ("added", "untracked", "renamed",
// "copied", ...); OldPath is required when Status is "renamed".
type FileChange struct {
	Path      string
	OldPath   string
	Status    string
	Diff      string
	Additions int
	Deletions int
}

// ParsedChange is the structured form of one changed file.
type ParsedChange struct {
	File       string     `json:"file"`
	ChangeType ChangeType `json:"change_type"`
	OldPath    string     `json:"old_path,omitempty"` // set for renames
	Diff       string     `json:"diff"`
	Additions  int        `json:"additions"`
	Deletions  int        `json:"deletions"`
	Extension  string     `json:"extension"` // lowercase, "" if none
	Complexity int        `json:"complexity"`
}

// DetectChangeType maps a raw status word onto a ChangeType. Unknown statuses
// (including "modified" and "copied") default to modified. A renamed status
// without an accompanying old path is invalid input.
func DetectChangeType(fc FileChange) (ChangeType, error) {
	switch strings.ToLower(fc.Status) {
	case "added", "untracked":
		return ChangeAdded, nil
	case "deleted":
		return ChangeDeleted, nil
	case "renamed":
		if fc.OldPath == "" {
			return "", fmt.Errorf("diffparse: renamed change for %q requires the prior path", fc.Path)
		}
		return ChangeRenamed, nil
	default:
		return ChangeModified, nil
	}
}

// Parse builds a ParsedChange from a raw file change, classifying it and
// deriving extension and complexity.
func Parse(fc FileChange) (ParsedChange, error) {
	ct, err := DetectChangeType(fc)
	if err != nil {
		return ParsedChange{}, err
	}

	pc := ParsedChange{
		File:       fc.Path,
		ChangeType: ct,
		Diff:       fc.Diff,
		Additions:  fc.Additions,
		Deletions:  fc.Deletions,
		Extension:  Extension(fc.Path),
		Complexity: Complexity(fc.Additions, fc.Deletions),
	}
	if ct == ChangeRenamed {
		pc.OldPath = fc.OldPath
	}
	return pc, nil
}

// ParseAll parses a slice of raw changes, preserving order. The first invalid
// record aborts with an error naming it.
func ParseAll(fcs []FileChange) ([]ParsedChange, error) {
	changes := make([]ParsedChange, 0, len(fcs))
	for _, fc := range fcs {
		pc, err := Parse(fc)
		if err != nil {
			return nil, err
		}
		changes = append(changes, pc)
	}
	return changes, nil
}

// Extension returns the lowercased substring after the last dot of the file
// name. Names with no dot yield "". A purely dot-prefixed hidden file such as
// ".gitignore" yields the suffix after the leading dot.
func Extension(filePath string) string {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// Complexity scores a change for relative ranking only. The score is
// additions + deletions + floor(2*sqrt(additions*deletions)): monotonically
// increasing in both counts, with mixed add/delete churn ranking above a
// pure append of the same size. It never inspects file content.
func Complexity(additions, deletions int) int {
	if additions < 0 {
		additions = 0
	}
	if deletions < 0 {
		deletions = 0
	}
	mixed := int(2 * math.Sqrt(float64(additions)*float64(deletions)))
	return additions + deletions + mixed
}
