// Package api provides the HTTP server and handlers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/events"
	"github.com/elbowspeak/nas-file-categorizer/internal/gallery"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
	"github.com/elbowspeak/nas-file-categorizer/internal/metrics"
	"github.com/elbowspeak/nas-file-categorizer/internal/scanner"
	"github.com/elbowspeak/nas-file-categorizer/internal/storage"
	"github.com/elbowspeak/nas-file-categorizer/webapp"
)

// ErrorResponse is the JSON error body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Server is the HTTP server.
type Server struct {
	baseCtx     context.Context
	store       *catalog.Store
	scanner     *scanner.Scanner
	ingestor    *gallery.Ingestor
	thumbs      storage.Backend
	broadcaster *events.Broadcaster
	nasRoot     string
}

// NewServer creates a new server. ctx bounds background work started by
// handlers (rescans), so shutdown cancels it.
func NewServer(
	ctx context.Context,
	store *catalog.Store,
	sc *scanner.Scanner,
	ingestor *gallery.Ingestor,
	thumbs storage.Backend,
	broadcaster *events.Broadcaster,
) *Server {
	return &Server{
		baseCtx:     ctx,
		store:       store,
		scanner:     sc,
		ingestor:    ingestor,
		thumbs:      thumbs,
		broadcaster: broadcaster,
		nasRoot:     sc.Root(),
	}
}

// Handler returns the HTTP handler with logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Gallery API
	mux.HandleFunc("GET /api/images", s.handleImages)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/metadata/{path...}", s.handleMetadata)
	mux.HandleFunc("GET /api/thumb/{path...}", s.handleThumb)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("POST /api/rescan", s.handleRescan)

	// Original image content
	mux.HandleFunc("GET /images/{path...}", s.handleImageContent)

	// Embedded gallery webapp at the root
	mux.Handle("/", http.FileServer(http.FS(webapp.Assets)))

	return metrics.Middleware(logging.Middleware(mux))
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ─── Progress ───────────────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.scanner.Progress())
}

// ─── Rescan ─────────────────────────────────────────────────────────────────

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	if s.scanner.Progress().ScanningActive {
		s.sendError(w, http.StatusConflict, "scan already in progress")
		return
	}

	go func() {
		if err := s.ingestor.RunScan(s.baseCtx); err != nil && err != scanner.ErrScanInProgress {
			logging.Error("rescan failed", zap.Error(err))
		}
	}()

	logging.Info("rescan triggered")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"message": "rescan started"})
}

// ─── SSE Events ─────────────────────────────────────────────────────────────

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  code,
	})
}
