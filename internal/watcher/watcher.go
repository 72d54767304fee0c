package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Change is one settled burst of edits to documents in the watched folder.
type Change struct {
	Paths []string
}

type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	logger   *logger_i.Logger
}

func New(dir string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{watcher: w, dir: dir, debounce: debounce, logger: logger_i.NewLogger("Watcher")}, nil
}

// Watch emits a Change once pdf or docx files in the folder stop changing
// for the debounce period. Editors write in several steps; one rebuild per
// save is enough. The channel closes when ctx ends or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	if err := w.watcher.Add(w.dir); err != nil {
		return nil, err
	}
	changes := make(chan Change, 1)

	go func() {
		defer close(changes)
		pending := map[string]struct{}{}
		timer := time.NewTimer(w.debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !isDocument(event.Name) || !relevant(event.Op) {
					continue
				}
				pending[event.Name] = struct{}{}
				timer.Reset(w.debounce)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "dir", w.dir, "error", err)

			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				paths := make([]string, 0, len(pending))
				for p := range pending {
					paths = append(paths, p)
				}
				sort.Strings(paths)
				pending = map[string]struct{}{}
				w.logger.Info("documents changed", "dir", w.dir, "files", len(paths))

				select {
				case changes <- Change{Paths: paths}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return changes, nil
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}

func isDocument(path string) bool {
	return commonModels.DocTypeFromName(filepath.Base(path)) != commonModels.Unsupported
}
