package gallery

import (
	"context"

	"go.uber.org/zap"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/events"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
	"github.com/elbowspeak/nas-file-categorizer/internal/scanner"
)

// Ingestor coordinates scanning and processing: it runs the NAS scanner,
// catalogs every image file, and feeds new records to the processor.
type Ingestor struct {
	scanner     *scanner.Scanner
	store       *catalog.Store
	processor   *Processor
	broadcaster *events.Broadcaster
}

// NewIngestor creates an ingest coordinator.
func NewIngestor(sc *scanner.Scanner, store *catalog.Store, proc *Processor, broadcaster *events.Broadcaster) *Ingestor {
	return &Ingestor{
		scanner:     sc,
		store:       store,
		processor:   proc,
		broadcaster: broadcaster,
	}
}

// RunScan performs a full scan, cataloging image files and enqueueing them
// for background processing. Returns scanner.ErrScanInProgress when a scan
// is already running.
func (in *Ingestor) RunScan(ctx context.Context) error {
	if in.broadcaster != nil {
		in.broadcaster.Publish(events.Event{Type: events.EventScanStarted})
	}

	err := in.scanner.Scan(ctx, func(fi catalog.FileInfo) {
		if !IsImageFile(fi.Path) {
			return
		}
		in.AddImage(fi)
	})
	if err != nil {
		return err
	}

	if in.broadcaster != nil {
		in.broadcaster.Publish(events.Event{Type: events.EventScanCompleted})
	}
	logging.Info("ingest completed", zap.Int("images", in.store.Len()))
	return nil
}

// AddImage catalogs a single image file and enqueues it for processing.
// Used by both the full scan and the filesystem watcher.
func (in *Ingestor) AddImage(fi catalog.FileInfo) {
	in.store.Put(catalog.ImageRecord{FileInfo: fi})
	in.processor.Enqueue(fi.Path)
	if in.broadcaster != nil {
		in.broadcaster.Publish(events.Event{
			Type:     events.EventImageAdded,
			Path:     fi.Path,
			Category: catalog.CategoryOf(fi.Path),
			Size:     fi.Size,
		})
	}
}

// RemoveImage drops a record from the catalog and deletes its thumbnail.
func (in *Ingestor) RemoveImage(path string) {
	if !in.store.Remove(path) {
		return
	}
	in.processor.RemoveThumbnail(context.Background(), path)
	if in.broadcaster != nil {
		in.broadcaster.Publish(events.Event{
			Type:     events.EventImageRemoved,
			Path:     path,
			Category: catalog.CategoryOf(path),
		})
	}
}
