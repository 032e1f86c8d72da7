// NAS Gallery Server
//
// Features:
// - NAS directory scanning with retry and live progress
// - Category derivation from directory layout
// - EXIF extraction & thumbnail generation (local or S3 storage)
// - SSE real-time catalog updates
// - Filesystem watcher for incremental changes
// - Prometheus metrics & structured logging (zap)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/elbowspeak/nas-file-categorizer/internal/api"
	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/config"
	"github.com/elbowspeak/nas-file-categorizer/internal/events"
	"github.com/elbowspeak/nas-file-categorizer/internal/gallery"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
	"github.com/elbowspeak/nas-file-categorizer/internal/metrics"
	"github.com/elbowspeak/nas-file-categorizer/internal/scanner"
	"github.com/elbowspeak/nas-file-categorizer/internal/storage"
	"github.com/elbowspeak/nas-file-categorizer/internal/storage/local"
	s3storage "github.com/elbowspeak/nas-file-categorizer/internal/storage/s3"
	"github.com/elbowspeak/nas-file-categorizer/internal/watcher"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("NAS Gallery Server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("nas_path", cfg.NASPath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Thumbnail storage backend
	thumbs, err := storage.NewBackend(cfg.ThumbBackend,
		local.Config{
			RootPath:   cfg.ThumbPath,
			CreateDirs: true,
		},
		s3storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
	if err != nil {
		logging.Fatal("storage backend init failed", zap.Error(err))
	}
	defer thumbs.Close()
	logging.Info("thumbnail storage initialized", zap.String("backend", thumbs.Type()))

	// SSE broadcaster
	broadcaster := events.NewBroadcaster()

	// Catalog + scanner
	store := catalog.NewStore()
	sc := scanner.New(cfg.NASPath, cfg.ScanRetryAttempts, cfg.ScanRetryDelay)

	// Background image processing
	processor := gallery.NewProcessor(store, cfg.NASPath, thumbs, broadcaster, cfg.ProcessWorkers)
	processor.Start(ctx)
	defer processor.Stop()

	ingestor := gallery.NewIngestor(sc, store, processor, broadcaster)

	// Initial scan in the background so the server is reachable immediately,
	// then start the filesystem watcher once the catalog is seeded.
	go func() {
		if err := ingestor.RunScan(ctx); err != nil {
			logging.Error("initial scan failed", zap.Error(err))
		}
		if !cfg.WatchEnabled {
			return
		}
		w, err := watcher.New(sc, ingestor)
		if err != nil {
			logging.Error("watcher init failed", zap.Error(err))
			return
		}
		if err := w.Start(ctx); err != nil {
			logging.Error("watcher start failed", zap.Error(err))
		}
	}()

	// Metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	// API server
	srv := api.NewServer(ctx, store, sc, ingestor, thumbs, broadcaster)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		httpServer.Close()
		metricsServer.Close()
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}
