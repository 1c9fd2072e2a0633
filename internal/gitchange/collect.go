// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package gitchange

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/diffparse"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/testable"
)

// DefaultTimeout is the per-git-command timeout for change collection.
const DefaultTimeout = 30 * time.Second

// ErrPullRequestSource is returned when a PullRequest source reaches the
// local collector. PR file sets come from the GitHub client instead.
var ErrPullRequestSource = errors.New("gitchange: pull request sources are collected through the GitHub client")

// ChangeSet is the raw output of one collection: per-file records ready for
// parsing plus the combined diff they were cut from.
type ChangeSet struct {
	Source Source
	Files  []diffparse.FileChange
	Diff   string
}

// Collector gathers change sets from a local repository using the git CLI.
type Collector struct {
	exec    testable.CommandExecutor
	repoDir string
	timeout time.Duration
}

// Option configures a Collector.
type Option func(*Collector)

// WithExecutor replaces the command executor. Used by tests.
func WithExecutor(exec testable.CommandExecutor) Option {
	return func(c *Collector) {
		c.exec = exec
	}
}

// WithTimeout overrides the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewCollector creates a Collector rooted at repoDir.
func NewCollector(repoDir string, opts ...Option) *Collector {
	c := &Collector{
		exec:    testable.DefaultExecutor(),
		repoDir: repoDir,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect gathers the change set for the given source. PullRequest sources
// return ErrPullRequestSource; they are resolved against the GitHub API.
func (c *Collector) Collect(ctx context.Context, src Source) (*ChangeSet, error) {
	switch s := src.(type) {
	case WorkingDir:
		return c.collectWorkingDir(ctx)
	case BranchCompare:
		return c.collectBranch(ctx, s)
	case PullRequest:
		return nil, ErrPullRequestSource
	default:
		return nil, fmt.Errorf("gitchange: unsupported source %T", src)
	}
}

// collectWorkingDir gathers staged, unstaged, and untracked changes relative
// to HEAD. Untracked files get a synthesized diff against /dev/null so that
// new content is reviewable like any other addition.
func (c *Collector) collectWorkingDir(ctx context.Context) (*ChangeSet, error) {
	statusOut, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	entries := parsePorcelain(statusOut)
	if len(entries) == 0 {
		return &ChangeSet{Source: WorkingDir{}}, nil
	}

	diffOut, err := c.run(ctx, "diff", "HEAD")
	if err != nil {
		return nil, err
	}
	numstatOut, err := c.run(ctx, "diff", "--numstat", "HEAD")
	if err != nil {
		return nil, err
	}

	counts := parseNumstat(numstatOut)
	perFile := diffparse.SplitDiff(diffOut)

	files := make([]diffparse.FileChange, 0, len(entries))
	for _, e := range entries {
		fc := diffparse.FileChange{
			Path:    e.path,
			OldPath: e.oldPath,
			Status:  e.status,
			Diff:    perFile[e.path],
		}
		if n, ok := counts[e.path]; ok {
			fc.Additions, fc.Deletions = n.additions, n.deletions
		}

		if e.status == "untracked" {
			fc.Diff = c.untrackedDiff(ctx, e.path)
			fc.Additions = countAddedLines(fc.Diff)
		}
		files = append(files, fc)
	}

	slog.Debug("gitchange: collected working directory changes", "files", len(files))
	return &ChangeSet{Source: WorkingDir{}, Files: files, Diff: diffOut}, nil
}

// collectBranch gathers the changes head introduces relative to the merge
// base with base, using git's three-dot range.
func (c *Collector) collectBranch(ctx context.Context, src BranchCompare) (*ChangeSet, error) {
	spec := src.Base + "..." + src.Head

	nameStatusOut, err := c.run(ctx, "diff", "--name-status", spec)
	if err != nil {
		return nil, err
	}
	numstatOut, err := c.run(ctx, "diff", "--numstat", spec)
	if err != nil {
		return nil, err
	}
	diffOut, err := c.run(ctx, "diff", spec)
	if err != nil {
		return nil, err
	}

	counts := parseNumstat(numstatOut)
	perFile := diffparse.SplitDiff(diffOut)

	var files []diffparse.FileChange
	for _, line := range strings.Split(nameStatusOut, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fc, ok := parseNameStatus(line)
		if !ok {
			continue
		}
		if n, found := counts[fc.Path]; found {
			fc.Additions, fc.Deletions = n.additions, n.deletions
		}
		fc.Diff = perFile[fc.Path]
		files = append(files, fc)
	}

	slog.Debug("gitchange: collected branch changes",
		"base", src.Base, "head", src.Head, "files", len(files))
	return &ChangeSet{Source: src, Files: files, Diff: diffOut}, nil
}

// run executes a git command in the repository and returns its stdout.
func (c *Collector) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := c.exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("gitchange: git %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// untrackedDiff synthesizes a diff for a file git does not track yet.
// git diff --no-index exits 1 when the files differ, which is the expected
// outcome here, so that exit code is not an error.
func (c *Collector) untrackedDiff(ctx context.Context, path string) string {
	out, err := c.run(ctx, "diff", "--no-index", "--", os.DevNull, path)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			slog.Debug("gitchange: cannot diff untracked file", "path", path, "error", err)
			return ""
		}
	}
	return out
}

// statusEntry is one parsed porcelain status line.
type statusEntry struct {
	path    string
	oldPath string
	status  string
}

// parsePorcelain parses `git status --porcelain` output. The two-letter XY
// code collapses to one status word; renames carry "old -> new" paths.
func parsePorcelain(out string) []statusEntry {
	var entries []statusEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		rest := line[3:]

		e := statusEntry{path: rest}
		switch {
		case code == "??":
			e.status = "untracked"
		case strings.Contains(code, "R"):
			e.status = "renamed"
			if old, renamed, found := strings.Cut(rest, " -> "); found {
				e.oldPath, e.path = old, renamed
			}
		case strings.Contains(code, "A"):
			e.status = "added"
		case strings.Contains(code, "D"):
			e.status = "deleted"
		default:
			e.status = "modified"
		}
		entries = append(entries, e)
	}
	return entries
}

// parseNameStatus parses one `git diff --name-status` line into a FileChange.
// Rename and copy lines carry a score suffix ("R100") and two paths.
func parseNameStatus(line string) (diffparse.FileChange, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return diffparse.FileChange{}, false
	}

	code := fields[0]
	switch code[0] {
	case 'A':
		return diffparse.FileChange{Path: fields[1], Status: "added"}, true
	case 'D':
		return diffparse.FileChange{Path: fields[1], Status: "deleted"}, true
	case 'R':
		if len(fields) < 3 {
			return diffparse.FileChange{}, false
		}
		return diffparse.FileChange{Path: fields[2], OldPath: fields[1], Status: "renamed"}, true
	case 'C':
		if len(fields) < 3 {
			return diffparse.FileChange{}, false
		}
		return diffparse.FileChange{Path: fields[2], OldPath: fields[1], Status: "copied"}, true
	default:
		return diffparse.FileChange{Path: fields[1], Status: "modified"}, true
	}
}

// lineCounts holds one file's numstat counters.
type lineCounts struct {
	additions int
	deletions int
}

// parseNumstat parses `git diff --numstat` output into per-path counts.
// Binary files report "-" counters and are recorded as zero. Rename lines
// use "old => new" path notation, possibly brace-grouped; the new path wins.
func parseNumstat(out string) map[string]lineCounts {
	counts := make(map[string]lineCounts)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < 3 {
			continue
		}

		var n lineCounts
		if v, err := strconv.Atoi(fields[0]); err == nil {
			n.additions = v
		}
		if v, err := strconv.Atoi(fields[1]); err == nil {
			n.deletions = v
		}
		counts[normalizeNumstatPath(fields[2])] = n
	}
	return counts
}

// normalizeNumstatPath resolves numstat rename notation to the new path.
// "src/{old.go => new.go}" becomes "src/new.go"; "old.go => new.go" becomes
// "new.go".
func normalizeNumstatPath(path string) string {
	if open := strings.Index(path, "{"); open >= 0 {
		if end := strings.Index(path[open:], "}"); end >= 0 {
			group := path[open+1 : open+end]
			if _, newPart, found := strings.Cut(group, " => "); found {
				resolved := path[:open] + newPart + path[open+end+1:]
				return strings.ReplaceAll(resolved, "//", "/")
			}
		}
	}
	if _, newPath, found := strings.Cut(path, " => "); found {
		return newPath
	}
	return path
}

// countAddedLines counts content additions in a unified diff, excluding the
// "+++" file header.
func countAddedLines(diff string) int {
	count := 0
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			count++
		}
	}
	return count
}
