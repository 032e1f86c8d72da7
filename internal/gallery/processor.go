// Package gallery implements the background image processing pipeline:
// EXIF extraction, dimension probing, and thumbnail generation.
package gallery

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/events"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
	"github.com/elbowspeak/nas-file-categorizer/internal/metrics"
	"github.com/elbowspeak/nas-file-categorizer/internal/storage"
)

// imageExtensions are file extensions treated as gallery images.
var imageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif",
	".heic", ".heif", ".avif",
	// RAW formats
	".cr2", ".cr3", ".nef", ".arw", ".dng", ".orf", ".rw2", ".pef", ".srw", ".raf",
}

// IsImageFile checks if a file path has an image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// canThumbnail reports whether a decoder is registered for the file's
// format. imaging registers jpeg, png, gif, tiff and bmp.
func canThumbnail(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif":
		return true
	}
	return false
}

// Processor enriches cataloged images in the background: EXIF, dimensions
// and thumbnails written through the storage backend.
type Processor struct {
	store       *catalog.Store
	nasRoot     string
	thumbs      storage.Backend
	broadcaster *events.Broadcaster
	queue       chan string
	wg          sync.WaitGroup
	cancel      context.CancelFunc
	workers     int
}

// NewProcessor creates a new image processor.
func NewProcessor(store *catalog.Store, nasRoot string, thumbs storage.Backend, broadcaster *events.Broadcaster, workers int) *Processor {
	if workers <= 0 {
		workers = 2
	}
	return &Processor{
		store:       store,
		nasRoot:     nasRoot,
		thumbs:      thumbs,
		broadcaster: broadcaster,
		queue:       make(chan string, 1000),
		workers:     workers,
	}
}

// Start launches the worker goroutines.
func (p *Processor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	logging.Info("image processor started", zap.Int("workers", p.workers))
}

// Stop signals workers to stop and waits for them to finish. The queue is
// left open so late Enqueue calls during shutdown are dropped, not panics.
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	logging.Info("image processor stopped")
}

// RemoveThumbnail deletes the stored thumbnail for a path. Missing
// thumbnails are not an error.
func (p *Processor) RemoveThumbnail(ctx context.Context, path string) {
	err := p.thumbs.DeleteObject(ctx, ThumbKey(path))
	metrics.RecordStorageOperation(p.thumbs.Type(), "delete", err)
	if err != nil {
		logging.Warn("failed to delete thumbnail", zap.String("path", path), zap.Error(err))
	}
}

// Enqueue adds a relative image path to the processing queue.
func (p *Processor) Enqueue(path string) {
	select {
	case p.queue <- path:
	default:
		logging.Warn("processor queue full, dropping", zap.String("path", path))
	}
}

func (p *Processor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-p.queue:
			if !ok {
				return
			}
			p.processImage(ctx, path)
		}
	}
}

func (p *Processor) processImage(ctx context.Context, path string) {
	start := time.Now()

	content, err := os.ReadFile(filepath.Join(p.nasRoot, filepath.FromSlash(path)))
	if err != nil {
		logging.Warn("processor: failed to read image", zap.String("path", path), zap.Error(err))
		metrics.RecordImageProcessed(false, time.Since(start))
		return
	}

	exifData, err := ExtractExif(bytes.NewReader(content))
	if err != nil {
		logging.Warn("processor: EXIF extraction failed", zap.String("path", path), zap.Error(err))
		// Continue anyway — still generate thumbnail
		exifData = &ExifData{Orientation: 1}
	}

	enrich := catalog.Enrichment{
		Width:       exifData.Width,
		Height:      exifData.Height,
		CameraMake:  exifData.CameraMake,
		CameraModel: exifData.CameraModel,
		DateTaken:   exifData.DateTaken,
	}

	if canThumbnail(path) {
		thumbBytes, _, _, err := GenerateThumbnail(bytes.NewReader(content), exifData.Orientation)
		if err != nil {
			logging.Warn("processor: thumbnail generation failed", zap.String("path", path), zap.Error(err))
		} else {
			key := ThumbKey(path)
			putErr := p.thumbs.PutObject(ctx, key, bytes.NewReader(thumbBytes), int64(len(thumbBytes)))
			metrics.RecordStorageOperation(p.thumbs.Type(), "put", putErr)
			if putErr != nil {
				logging.Warn("processor: failed to store thumbnail", zap.String("path", path), zap.Error(putErr))
			} else {
				enrich.HasThumbnail = true
				metrics.RecordThumbnailGenerated()
			}
		}

		if enrich.Width == 0 || enrich.Height == 0 {
			if w, h, err := ImageDimensions(bytes.NewReader(content)); err == nil {
				enrich.Width = w
				enrich.Height = h
			}
		}
	}

	p.store.SetEnrichment(path, enrich)
	metrics.RecordImageProcessed(true, time.Since(start))

	if p.broadcaster != nil {
		p.broadcaster.Publish(events.Event{
			Type:     events.EventImageUpdated,
			Path:     path,
			Category: catalog.CategoryOf(path),
		})
	}

	logging.Debug("processor: image processed",
		zap.String("path", path),
		zap.Bool("thumbnail", enrich.HasThumbnail),
		zap.Int("width", enrich.Width),
		zap.Int("height", enrich.Height))
}
