// Package metrics provides Prometheus metrics for the gallery server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Scan metrics
	scanFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_scan_files_total",
			Help: "Total files visited by the NAS scanner",
		},
	)

	scanErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_scan_errors_total",
			Help: "Total files skipped after exhausting stat retries",
		},
	)

	scanRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_scan_retries_total",
			Help: "Total stat retries during scanning",
		},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_scan_duration_seconds",
			Help:    "Duration of full NAS scans",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)

	// Catalog metrics
	catalogImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_catalog_images",
			Help: "Number of image records in the catalog",
		},
	)

	catalogBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_catalog_bytes",
			Help: "Total size in bytes of cataloged images",
		},
	)

	// Processing metrics
	imagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_images_processed_total",
			Help: "Total images run through the background processor",
		},
		[]string{"result"},
	)

	thumbnailsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_thumbnails_generated_total",
			Help: "Total thumbnails generated",
		},
	)

	processDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_image_process_duration_seconds",
			Help:    "Per-image processing duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Storage metrics
	storageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_storage_operations_total",
			Help: "Total storage backend operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// SSE metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_sse_events_total",
			Help: "Total SSE events published",
		},
		[]string{"type"},
	)

	// Watcher metrics
	watcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_watcher_events_total",
			Help: "Total filesystem watcher events handled",
		},
		[]string{"op"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordScannedFile records a file visited by the scanner.
func RecordScannedFile() {
	scanFilesTotal.Inc()
}

// RecordScanError records a file skipped after retries were exhausted.
func RecordScanError() {
	scanErrorsTotal.Inc()
}

// RecordScanRetry records a single stat retry.
func RecordScanRetry() {
	scanRetriesTotal.Inc()
}

// RecordScanDuration records the duration of a full scan.
func RecordScanDuration(d time.Duration) {
	scanDuration.Observe(d.Seconds())
}

// SetCatalogSize sets the catalog record count and byte total.
func SetCatalogSize(images int, bytes int64) {
	catalogImages.Set(float64(images))
	catalogBytes.Set(float64(bytes))
}

// RecordImageProcessed records one processor outcome.
func RecordImageProcessed(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	imagesProcessedTotal.WithLabelValues(result).Inc()
	processDuration.Observe(duration.Seconds())
}

// RecordThumbnailGenerated records a generated thumbnail.
func RecordThumbnailGenerated() {
	thumbnailsGeneratedTotal.Inc()
}

// RecordStorageOperation records a storage backend operation.
func RecordStorageOperation(backend, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	storageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

// SetSSEConnectionsActive sets the number of active SSE connections.
func SetSSEConnectionsActive(count int64) {
	sseConnectionsActive.Set(float64(count))
}

// RecordSSEEvent records an SSE event publication.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordWatcherEvent records a handled filesystem watcher event.
func RecordWatcherEvent(op string) {
	watcherEventsTotal.WithLabelValues(op).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
