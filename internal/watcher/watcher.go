// Package watcher keeps the catalog fresh after the initial scan by
// watching the NAS tree for filesystem changes.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/elbowspeak/nas-file-categorizer/internal/gallery"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
	"github.com/elbowspeak/nas-file-categorizer/internal/metrics"
	"github.com/elbowspeak/nas-file-categorizer/internal/scanner"
)

// Watcher subscribes to filesystem events under the NAS root and applies
// them to the catalog through the ingestor. fsnotify watches are per
// directory, so new directories are added to the watch set as they appear.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	scanner  *scanner.Scanner
	ingestor *gallery.Ingestor

	mu          sync.Mutex
	debounceMap map[string]time.Time
	debounceDur time.Duration

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New creates a watcher over the scanner's root.
func New(sc *scanner.Scanner, ingestor *gallery.Ingestor) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:         fsw,
		root:        sc.Root(),
		scanner:     sc,
		ingestor:    ingestor,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // coalesce rapid writes
		doneCh:      make(chan struct{}),
	}, nil
}

// Start registers watches for every directory under the root and begins
// handling events. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	count := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := w.fsw.Add(path); addErr == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Info("filesystem watcher started",
		zap.String("root", w.root),
		zap.Int("directories", count))

	go w.run(ctx)
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.fsw.Close()
		<-w.doneCh
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		metrics.RecordWatcherEvent("create")
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// Watch the new directory and pick up anything already in it.
			w.fsw.Add(event.Name)
			filepath.WalkDir(event.Name, func(path string, d fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					return nil
				}
				if d.IsDir() {
					w.fsw.Add(path)
					return nil
				}
				w.addFile(path)
				return nil
			})
			return
		}
		w.addFile(event.Name)

	case event.Op.Has(fsnotify.Write):
		metrics.RecordWatcherEvent("write")
		if !w.debounce(event.Name) {
			return
		}
		w.addFile(event.Name)

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		metrics.RecordWatcherEvent("remove")
		rel, err := filepath.Rel(w.root, event.Name)
		if err != nil {
			return
		}
		w.ingestor.RemoveImage(filepath.ToSlash(rel))
	}
}

// addFile re-stats a file and catalogs it if it is an image.
func (w *Watcher) addFile(path string) {
	if !gallery.IsImageFile(path) {
		return
	}
	fi, err := w.scanner.StatFile(path)
	if err != nil {
		logging.Warn("watcher: stat failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.ingestor.AddImage(fi)
}

// debounce reports whether an event for path should be handled now.
// Repeated writes within the debounce window collapse to one.
func (w *Watcher) debounce(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.debounceMap[path]; ok && now.Sub(last) < w.debounceDur {
		return false
	}
	w.debounceMap[path] = now
	return true
}
