package format

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Watch formats files under paths whenever they are written or created,
// until ctx is cancelled. fn receives every file that changed or failed.
// The formatter's own writes trigger a second event that finds the file
// already formatted and is not reported.
func (f *Formatter) Watch(ctx context.Context, paths []string, fn func(Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	w := &watchSet{files: make(map[string]bool)}
	for _, root := range paths {
		if err := w.add(f, watcher, root); err != nil {
			return err
		}
	}

	logger := f.logger.With("run_id", uuid.NewString())
	logger.Info("watching for changes", "paths", paths)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Clean(event.Name)

			if event.Has(fsnotify.Create) && w.underRoot(name) {
				if info, err := os.Stat(name); err == nil && info.IsDir() {
					if err := w.addDir(f, watcher, name); err != nil {
						logger.Warn("failed to watch new directory", "path", name, "error", err)
					}
					continue
				}
			}
			if !w.wants(f, name) {
				continue
			}

			res, err := f.file(ctx, name, false, logger)
			if err != nil || res.Changed {
				fn(res, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// watchSet tracks what a Watch call is interested in. fsnotify watches
// directories, so explicit files are matched by name and directory roots
// by prefix.
type watchSet struct {
	files map[string]bool
	roots []string
}

func (w *watchSet) add(f *Formatter, watcher *fsnotify.Watcher, root string) error {
	// absolute paths keep event names comparable with roots such as "."
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		w.files[root] = true
		if err := watcher.Add(filepath.Dir(root)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
		return nil
	}
	w.roots = append(w.roots, root)
	return w.addDir(f, watcher, root)
}

// addDir watches dir and its subdirectories, skipping excluded ones.
func (w *watchSet) addDir(f *Formatter, watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && f.excluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *watchSet) underRoot(name string) bool {
	for _, root := range w.roots {
		if name == root || strings.HasPrefix(name, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *watchSet) wants(f *Formatter, name string) bool {
	if w.files[name] {
		return true
	}
	if !w.underRoot(name) || !f.matches(name) {
		return false
	}
	rel, err := filepath.Rel(w.rootOf(name), name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if f.excluded(part) {
			return false
		}
	}
	return true
}

func (w *watchSet) rootOf(name string) string {
	for _, root := range w.roots {
		if name == root || strings.HasPrefix(name, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}
