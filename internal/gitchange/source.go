// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package gitchange collects reviewable change sets from a git repository.
// A change set comes from one of three tagged sources: the working directory,
// a branch comparison, or a pull request.
package gitchange

import (
	"fmt"
	"strconv"
	"strings"
)

// Source identifies where a change set comes from. The three variants are
// WorkingDir, BranchCompare, and PullRequest; each carries the fields its
// collection strategy needs, validated at construction.
type Source interface {
	fmt.Stringer

	isSource()
}

// WorkingDir selects uncommitted changes: staged, unstaged, and untracked
// files relative to HEAD.
type WorkingDir struct{}

func (WorkingDir) String() string { return "working-dir" }
func (WorkingDir) isSource()      {}

// BranchCompare selects the changes Head introduces relative to the merge
// base with Base, the same set a pull request from Head into Base would show.
type BranchCompare struct {
	Base string
	Head string
}

// NewBranchCompare creates a branch comparison source. Both branch names are
// required; an empty head means "compare the current branch" and callers
// should resolve it before construction.
func NewBranchCompare(base, head string) (BranchCompare, error) {
	if base == "" {
		return BranchCompare{}, fmt.Errorf("gitchange: branch comparison requires a base branch")
	}
	if head == "" {
		return BranchCompare{}, fmt.Errorf("gitchange: branch comparison requires a head branch")
	}
	return BranchCompare{Base: base, Head: head}, nil
}

func (b BranchCompare) String() string { return "branch:" + b.Base + ".." + b.Head }
func (BranchCompare) isSource()        {}

// PullRequest selects the changed files of an open pull request. Collection
// goes through the GitHub API rather than local git.
type PullRequest struct {
	Number int
}

// NewPullRequest creates a pull request source. The number must be positive.
func NewPullRequest(number int) (PullRequest, error) {
	if number <= 0 {
		return PullRequest{}, fmt.Errorf("gitchange: pull request number must be positive, got %d", number)
	}
	return PullRequest{Number: number}, nil
}

func (p PullRequest) String() string { return fmt.Sprintf("pr:%d", p.Number) }
func (PullRequest) isSource()        {}

// ParseSource resolves a source string into a Source. Accepted forms:
//
//	""                 working directory (the default)
//	"working-dir"      working directory
//	"branch:BASE..HEAD" branch comparison; HEAD defaults to "HEAD" when omitted
//	"pr:N"             pull request N
func ParseSource(s string) (Source, error) {
	switch {
	case s == "" || s == "working-dir":
		return WorkingDir{}, nil

	case strings.HasPrefix(s, "branch:"):
		spec := strings.TrimPrefix(s, "branch:")
		base, head, found := strings.Cut(spec, "..")
		if !found {
			base, head = spec, "HEAD"
		}
		return NewBranchCompare(base, head)

	case strings.HasPrefix(s, "pr:"):
		num, err := strconv.Atoi(strings.TrimPrefix(s, "pr:"))
		if err != nil {
			return nil, fmt.Errorf("gitchange: invalid pull request number in %q: %w", s, err)
		}
		return NewPullRequest(num)

	default:
		return nil, fmt.Errorf("gitchange: unknown change source %q (want working-dir, branch:BASE..HEAD, or pr:N)", s)
	}
}
