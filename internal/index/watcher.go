package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dox/internal/logfields"
)

// Event kinds reported by Watch.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// SourceExt is the extension of watched document sources.
const SourceExt = ".mdx"

// FileEvent describes a change to a document source. Path is slash-separated
// and relative to Root.
type FileEvent struct {
	Kind string
	Root string
	Path string
}

// EventCallback is called for every document source change.
type EventCallback func(FileEvent)

// Watch starts an fsnotify watcher on every content root and reports source
// changes until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list, and sources already inside them are reported as created. Renames
// report the old path as deleted; the new path arrives as a create.
func Watch(ctx context.Context, roots []string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
		logger.Info("watcher: started", logfields.Root(root))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name
			root, rel, ok := relativeTo(roots, absPath)
			if !ok {
				continue
			}

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed", logfields.Path(absPath), logfields.Error(addErr))
					} else {
						logger.Debug("watcher: watching new dir", logfields.Path(absPath))
					}
					reportNewDir(root, absPath, cb)
					continue
				}
			}

			if !strings.HasSuffix(rel, SourceExt) {
				continue
			}

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = KindCreated
			case ev.Op&fsnotify.Write != 0:
				kind = KindUpdated
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = KindDeleted
			default:
				continue
			}
			logger.Debug("watcher: source changed", logfields.Path(rel), logfields.Event(kind))
			if cb != nil {
				cb(FileEvent{Kind: kind, Root: root, Path: rel})
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", logfields.Error(watchErr))
		}
	}
}

// relativeTo returns the root containing abs and the slash-separated path
// below it.
func relativeTo(roots []string, abs string) (string, string, bool) {
	for _, root := range roots {
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		return root, filepath.ToSlash(rel), true
	}
	return "", "", false
}

// reportNewDir reports any sources found in a newly created directory.
func reportNewDir(root, dirPath string, cb EventCallback) {
	if cb == nil {
		return
	}
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, SourceExt) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		cb(FileEvent{Kind: KindCreated, Root: root, Path: filepath.ToSlash(rel)})
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
