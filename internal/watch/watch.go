// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package watch turns filesystem activity into debounced review triggers.
// A Watcher observes a repository tree recursively and delivers batches of
// changed paths once the tree has been quiet for the debounce interval.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

// defaultIgnoreDirs are directory names that never produce review triggers
// and are not descended into.
var defaultIgnoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".idea":        true,
	".scannerwork": true,
	"node_modules": true,
	"vendor":       true,
}

// Watcher observes one repository tree. Create directories are added to the
// watch set as they appear; ignored directories are pruned at walk time.
type Watcher struct {
	root     string
	debounce time.Duration
	ignores  []string
	fsw      *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period before a batch fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnorePatterns adds doublestar glob patterns, matched against paths
// relative to the watch root, whose events are dropped.
func WithIgnorePatterns(patterns ...string) Option {
	return func(w *Watcher) {
		w.ignores = append(w.ignores, patterns...)
	}
}

// New creates a Watcher over the repository rooted at root and registers
// watches for every non-ignored directory beneath it.
func New(root string, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsw.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return w, nil
}

// Close releases the underlying filesystem watcher. A running Run loop
// drains and returns after Close.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks delivering debounced batches of changed paths (relative to the
// watch root, sorted) to fn until the context is cancelled or the watcher is
// closed. fn runs on the watch goroutine; events arriving while it executes
// are buffered by the kernel queue and start the next batch.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, paths []string)) error {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, ok := w.accept(event)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch: filesystem error", "error", err)

		case <-fire:
			fire = nil
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})
			slog.Debug("watch: batch ready", "files", len(paths))
			fn(ctx, paths)
		}
	}
}

// accept filters one raw event. New directories extend the watch set; file
// events survive when the path is not ignored. The returned path is relative
// to the watch root.
func (w *Watcher) accept(event fsnotify.Event) (string, bool) {
	const fileOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&fileOps == 0 {
		return "", false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !w.ignoredDir(rel) {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("watch: cannot watch new directory", "path", rel, "error", err)
			}
		}
		return "", false
	}

	if w.ignored(rel) {
		return "", false
	}
	return rel, true
}

// addTree registers watches for dir and every non-ignored directory below
// it. Unreadable entries are skipped.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil //nolint:nilerr // outside the root, skip
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && w.ignoredDir(rel) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: watching %s: %w", rel, addErr)
		}
		return nil
	})
}

// ignoredDir reports whether a directory (relative, slash-separated) is
// excluded from watching.
func (w *Watcher) ignoredDir(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if defaultIgnoreDirs[part] {
			return true
		}
	}
	return w.matchesIgnore(rel)
}

// ignored reports whether a file path (relative, slash-separated) should
// produce no trigger.
func (w *Watcher) ignored(rel string) bool {
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir != "." && w.ignoredDir(dir) {
		return true
	}
	return w.matchesIgnore(rel)
}

func (w *Watcher) matchesIgnore(rel string) bool {
	for _, pattern := range w.ignores {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
