// Package catalog holds the in-memory image catalog populated by the NAS
// scanner. Records live for the server session; a rescan rebuilds them.
package catalog

import (
	"strings"
	"sync"
	"time"

	"github.com/elbowspeak/nas-file-categorizer/internal/metrics"
)

// FileInfo describes a file found on the NAS. Path is relative to the NAS
// root and slash-separated; timestamps are Unix seconds.
type FileInfo struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Extension string `json:"extension,omitempty"`
	Size      int64  `json:"size"`
	Modified  int64  `json:"modified"`
}

// ImageRecord is one cataloged image. FileInfo is set by the scanner; the
// enrichment fields are filled in once by the background processor.
type ImageRecord struct {
	FileInfo     FileInfo   `json:"file_info"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	CameraMake   string     `json:"camera_make,omitempty"`
	CameraModel  string     `json:"camera_model,omitempty"`
	DateTaken    *time.Time `json:"date_taken,omitempty"`
	HasThumbnail bool       `json:"has_thumbnail,omitempty"`
}

// CategoryOf returns the grouping key for a path: the first path segment,
// or the whole path when it contains no separator.
func CategoryOf(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// CategoryCount holds a category and the number of images in it.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats holds aggregate catalog statistics.
type Stats struct {
	TotalImages   int   `json:"total_images"`
	TotalSize     int64 `json:"total_size"`
	WithThumbnail int   `json:"with_thumbnail"`
	Categories    int   `json:"categories"`
}

// Store is a concurrency-safe image catalog that preserves insertion order.
type Store struct {
	mu      sync.RWMutex
	records map[string]*ImageRecord
	order   []string
}

// NewStore creates an empty catalog.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*ImageRecord),
	}
}

// Put inserts or replaces a record keyed by its relative path.
func (s *Store) Put(rec ImageRecord) {
	s.mu.Lock()
	path := rec.FileInfo.Path
	if _, exists := s.records[path]; !exists {
		s.order = append(s.order, path)
	}
	s.records[path] = &rec
	s.mu.Unlock()
	s.updateMetrics()
}

// Get returns the record for a relative path, or nil if unknown.
func (s *Store) Get(path string) *ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[path]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// Remove deletes a record. Returns true if it existed.
func (s *Store) Remove(path string) bool {
	s.mu.Lock()
	_, ok := s.records[path]
	if ok {
		delete(s.records, path)
		for i, p := range s.order {
			if p == path {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if ok {
		s.updateMetrics()
	}
	return ok
}

// Enrichment is the processor output attached to a record.
type Enrichment struct {
	Width        int
	Height       int
	CameraMake   string
	CameraModel  string
	DateTaken    *time.Time
	HasThumbnail bool
}

// SetEnrichment records processor output (dimensions, EXIF fields,
// thumbnail flag) for an already-cataloged image. Unknown paths are
// ignored.
func (s *Store) SetEnrichment(path string, e Enrichment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[path]
	if !ok {
		return
	}
	rec.Width = e.Width
	rec.Height = e.Height
	rec.CameraMake = e.CameraMake
	rec.CameraModel = e.CameraModel
	rec.DateTaken = e.DateTaken
	rec.HasThumbnail = e.HasThumbnail
}

// List returns a snapshot of all records in insertion order.
func (s *Store) List() []ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ImageRecord, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, *s.records[path])
	}
	return out
}

// ListByCategory returns records whose derived category matches, in
// insertion order.
func (s *Store) ListByCategory(category string) []ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ImageRecord
	for _, path := range s.order {
		if CategoryOf(path) == category {
			out = append(out, *s.records[path])
		}
	}
	return out
}

// Categories returns the distinct derived categories with counts, in
// first-seen order.
func (s *Store) Categories() []CategoryCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	var order []string
	for _, path := range s.order {
		cat := CategoryOf(path)
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		counts[cat]++
	}
	out := make([]CategoryCount, 0, len(order))
	for _, cat := range order {
		out = append(out, CategoryCount{Category: cat, Count: counts[cat]})
	}
	return out
}

// Stats returns aggregate statistics over the catalog.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{TotalImages: len(s.order)}
	cats := make(map[string]struct{})
	for _, rec := range s.records {
		st.TotalSize += rec.FileInfo.Size
		if rec.HasThumbnail {
			st.WithThumbnail++
		}
		cats[CategoryOf(rec.FileInfo.Path)] = struct{}{}
	}
	st.Categories = len(cats)
	return st
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) updateMetrics() {
	st := s.Stats()
	metrics.SetCatalogSize(st.TotalImages, st.TotalSize)
}
