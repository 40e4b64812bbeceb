// Package watch rebuilds the site when files of the graph change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/logpress/internal/storage"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc performs one full conversion. The graph is always rebuilt
// whole; changed paths are informational.
type RebuildFunc func(ctx context.Context, changed []string) error

// Options configure Watch.
type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Ignore lists absolute directories never watched, such as an output
	// directory placed inside the graph.
	Ignore []string
}

// Watch starts an fsnotify watcher on root and calls rebuild after each
// burst of changes until ctx is cancelled. Hidden directories and files
// written by storage are ignored. New directories are added as they appear.
func Watch(ctx context.Context, root string, logger *slog.Logger, opts Options, rebuild RebuildFunc) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	ignored := func(dir string) bool {
		for _, ig := range opts.Ignore {
			if dir == ig || strings.HasPrefix(dir, ig+string(os.PathSeparator)) {
				return true
			}
		}
		return false
	}
	if err := addDirsRecursive(w, root, ignored); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			logger.Info("watcher: rebuilding", slog.Int("changed", len(changed)))
			if err := rebuild(ctx, changed); err != nil {
				logger.Error("watcher: rebuild failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			path := ev.Name
			if ignored(path) || skip(root, path) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, path, ignored); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", path))
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// skip reports whether path lies in a hidden directory or is a hidden file.
func skip(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return strings.HasPrefix(filepath.Base(path), storage.TempPrefix)
}

// addDirsRecursive adds root and its visible subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, ignored func(string) bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || ignored(path)) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
