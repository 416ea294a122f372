package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"sheetstand/internal/config"
	"sheetstand/internal/content"
	"sheetstand/internal/http"
	"sheetstand/internal/metrics"
	"sheetstand/internal/service"
	"sheetstand/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	store := storage.NewSQLiteStore(db)

	// Initialize the content store for document bytes
	ctx := context.Background()
	contents, err := content.Open(ctx, content.Options{
		Driver: content.Driver(cfg.BlobDriver),
		FSRoot: cfg.BlobFSRoot,
		S3: content.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		},
	})
	if err != nil {
		log.Fatalf("Failed to open content store: %v", err)
	}
	slog.Info("Content store ready", "driver", contents.Driver())

	// Create the core services
	catalog := service.NewCatalog(store, contents)
	registry := service.NewRegistry(store)
	ordering := service.NewOrdering(store)

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		Store:    store,
		Contents: contents,
		Catalog:  catalog,
		Registry: registry,
		Ordering: ordering,
		Metrics:  metrics.New(),
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
