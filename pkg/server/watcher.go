package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watcher monitors source directories and reports change bursts.
type watcher struct {
	fs *fsnotify.Watcher
}

func newWatcher(dirs []string) (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{fs: fs}
	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			slog.Warn("cannot watch directory", "dir", dir, "err", err)
			continue
		}
		slog.Info("watching", "dir", dir)
	}
	return w, nil
}

// addRecursive watches dir and its subdirectories, skipping hidden
// ones. Missing directories are not an error.
func (w *watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// run delivers debounced change notifications to onChange until ctx is
// cancelled. Rapid event bursts collapse into a single call.
func (w *watcher) run(ctx context.Context, onChange func()) {
	const debounce = 200 * time.Millisecond

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			// New directories need watching too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
			slog.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}

		case <-fire:
			timer = nil
			slog.Info("rebuilding site")
			onChange()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "err", err)
		}
	}
}

func (w *watcher) Close() error {
	return w.fs.Close()
}
