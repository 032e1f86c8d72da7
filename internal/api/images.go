package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/gallery"
	"github.com/elbowspeak/nas-file-categorizer/internal/metrics"
)

// ─── Image Listing ──────────────────────────────────────────────────────────

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var images []catalog.ImageRecord
	if category := r.URL.Query().Get("category"); category != "" {
		images = s.store.ListByCategory(category)
	} else {
		images = s.store.List()
	}
	if images == nil {
		images = []catalog.ImageRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(images)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.store.Categories()
	if categories == nil {
		categories = []catalog.CategoryCount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.Stats())
}

// ─── Image Metadata ─────────────────────────────────────────────────────────

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		s.sendError(w, http.StatusBadRequest, "path required")
		return
	}

	rec := s.store.Get(path)
	if rec == nil {
		s.sendError(w, http.StatusNotFound, "no metadata for this file")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// ─── Thumbnails ─────────────────────────────────────────────────────────────

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		s.sendError(w, http.StatusBadRequest, "path required")
		return
	}

	rec := s.store.Get(path)
	if rec == nil || !rec.HasThumbnail {
		s.sendError(w, http.StatusNotFound, "no thumbnail")
		return
	}

	reader, size, err := s.thumbs.GetObject(r.Context(), gallery.ThumbKey(path))
	metrics.RecordStorageOperation(s.thumbs.Type(), "get", err)
	if err != nil {
		s.sendError(w, http.StatusNotFound, "thumbnail not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, reader)
}

// ─── Original Content ───────────────────────────────────────────────────────

// handleImageContent serves original file bytes from the NAS root. Only
// cataloged paths are served, which also rules out traversal outside the
// root.
func (s *Server) handleImageContent(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		s.sendError(w, http.StatusBadRequest, "file path required")
		return
	}

	rec := s.store.Get(path)
	if rec == nil {
		s.sendError(w, http.StatusNotFound, "file not found: "+path)
		return
	}

	f, err := os.Open(filepath.Join(s.nasRoot, filepath.FromSlash(path)))
	if err != nil {
		s.sendError(w, http.StatusNotFound, "file not found: "+path)
		return
	}
	defer f.Close()

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(rec.FileInfo.Size, 10))
	io.Copy(w, f)
}
