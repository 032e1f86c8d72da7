// Package scanner walks the NAS directory tree and catalogs files. Stat
// calls are retried with a delay so transient network-share errors don't
// drop files from the catalog.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
	"github.com/elbowspeak/nas-file-categorizer/internal/metrics"
)

// ErrScanInProgress is returned by Scan when another scan is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Progress reports the live state of a scan. Field names match the
// /api/progress wire format.
type Progress struct {
	ScanningActive   bool   `json:"scanning_active"`
	TotalFiles       int64  `json:"total_files"`
	ProcessedFiles   int64  `json:"processed_files"`
	CurrentDirectory string `json:"current_directory"`
	ErrorCount       int64  `json:"error_count"`
}

// Scanner walks a root directory and reports each regular file it finds.
type Scanner struct {
	root          string
	retryAttempts int
	retryDelay    time.Duration

	scanning   atomic.Bool
	totalFiles atomic.Int64
	processed  atomic.Int64
	errorCount atomic.Int64

	mu         sync.Mutex
	currentDir string
}

// New creates a scanner for root. retryAttempts <= 0 defaults to 3.
func New(root string, retryAttempts int, retryDelay time.Duration) *Scanner {
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	return &Scanner{
		root:          root,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}
}

// Root returns the scanned root directory.
func (s *Scanner) Root() string { return s.root }

// Progress returns a snapshot of the current scan state. Counters persist
// after the scan completes so the last run stays inspectable.
func (s *Scanner) Progress() Progress {
	s.mu.Lock()
	dir := s.currentDir
	s.mu.Unlock()
	return Progress{
		ScanningActive:   s.scanning.Load(),
		TotalFiles:       s.totalFiles.Load(),
		ProcessedFiles:   s.processed.Load(),
		CurrentDirectory: dir,
		ErrorCount:       s.errorCount.Load(),
	}
}

// Scan walks the root and invokes fn for every regular file that could be
// stat'ed. Only one scan runs at a time; a concurrent call returns
// ErrScanInProgress. Unreadable entries are counted and skipped, never
// fatal; only a failure to walk the root itself aborts the scan.
func (s *Scanner) Scan(ctx context.Context, fn func(catalog.FileInfo)) error {
	if !s.scanning.CompareAndSwap(false, true) {
		return ErrScanInProgress
	}
	defer s.scanning.Store(false)

	s.totalFiles.Store(0)
	s.processed.Store(0)
	s.errorCount.Store(0)

	start := time.Now()
	logging.Info("scan started", zap.String("root", s.root))

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			if path == s.root {
				return walkErr
			}
			s.errorCount.Add(1)
			metrics.RecordScanError()
			logging.Warn("skipping unreadable entry", zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			s.mu.Lock()
			s.currentDir = path
			s.mu.Unlock()
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		s.totalFiles.Add(1)
		metrics.RecordScannedFile()

		info, err := s.statWithRetry(path)
		if err != nil {
			s.errorCount.Add(1)
			metrics.RecordScanError()
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			s.errorCount.Add(1)
			metrics.RecordScanError()
			return nil
		}
		rel = filepath.ToSlash(rel)

		fn(catalog.FileInfo{
			Path:      rel,
			Name:      d.Name(),
			Extension: strings.ToLower(filepath.Ext(path)),
			Size:      info.Size(),
			Modified:  info.ModTime().Unix(),
		})
		s.processed.Add(1)
		return nil
	})

	metrics.RecordScanDuration(time.Since(start))
	if err != nil {
		logging.Error("scan failed", zap.String("root", s.root), zap.Error(err))
		return err
	}

	logging.Info("scan completed",
		zap.String("root", s.root),
		zap.Int64("files", s.processed.Load()),
		zap.Int64("errors", s.errorCount.Load()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// StatFile stats a single file under the root and returns its FileInfo
// with a root-relative path. Used by the watcher for incremental updates.
func (s *Scanner) StatFile(path string) (catalog.FileInfo, error) {
	info, err := s.statWithRetry(path)
	if err != nil {
		return catalog.FileInfo{}, err
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return catalog.FileInfo{}, err
	}
	return catalog.FileInfo{
		Path:      filepath.ToSlash(rel),
		Name:      filepath.Base(path),
		Extension: strings.ToLower(filepath.Ext(path)),
		Size:      info.Size(),
		Modified:  info.ModTime().Unix(),
	}, nil
}

// statWithRetry stats a file, retrying on error to ride out transient
// network-share hiccups.
func (s *Scanner) statWithRetry(path string) (os.FileInfo, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		info, err := os.Stat(path)
		if err == nil {
			return info, nil
		}
		lastErr = err
		if attempt < s.retryAttempts {
			metrics.RecordScanRetry()
			logging.Warn("stat retry",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err))
			time.Sleep(s.retryDelay)
		}
	}
	logging.Error("stat failed after retries",
		zap.String("path", path),
		zap.Int("attempts", s.retryAttempts),
		zap.Error(lastErr))
	return nil, lastErr
}
