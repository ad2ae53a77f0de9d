package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/memoryflow/internal/config"
	"github.com/dunamismax/memoryflow/internal/normalize"
	"github.com/dunamismax/memoryflow/internal/storage"
	"github.com/dunamismax/memoryflow/internal/store"
	"github.com/dunamismax/memoryflow/internal/telemetry"
	"github.com/dunamismax/memoryflow/internal/worker"
)

func main() {
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		Component:    "worker",
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("setup tracing: %v", err)
	}

	if err := normalize.Startup(); err != nil {
		logger.Fatalf("start image runtime: %v", err)
	}
	defer normalize.Shutdown()

	normalizer, err := normalize.New(normalize.Config{
		MaxLongSide: cfg.Image.MaxLongSide,
		Quality:     cfg.Image.Quality,
	})
	if err != nil {
		logger.Fatalf("build normalizer: %v", err)
	}

	blobs, err := storage.Open(ctx, storage.Config{
		Driver:   cfg.Storage.Driver,
		LocalDir: cfg.Storage.LocalDir,
		Endpoint: cfg.Storage.Endpoint,
		Access:   cfg.Storage.AccessKey,
		Secret:   cfg.Storage.SecretKey,
		Bucket:   cfg.Storage.Bucket,
		UseSSL:   cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}

	memories, closeStore, err := store.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("open memory store: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Printf("memory store close error: %v", err)
		}
	}()

	srv, err := worker.NewServer(logger, cfg.Queue, cfg.Worker, cfg.Image.ThumbnailLongSide, normalizer, blobs, memories)
	if err != nil {
		logger.Fatalf("build worker: %v", err)
	}

	metricsServer := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           srv.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("metrics listening on %s", cfg.Worker.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("metrics server failed: %v", err)
		}
	}()

	logger.Printf(
		"starting worker concurrency=%d max_active_jobs=%d queue=%s redis=%s thumbnail_side=%d",
		cfg.Worker.Concurrency,
		cfg.Worker.MaxActiveJobs,
		cfg.Queue.Name,
		cfg.Queue.RedisAddr,
		cfg.Image.ThumbnailLongSide,
	)

	// asynq.Server.Run installs its own signal handling and returns on SIGTERM.
	if err := srv.Run(); err != nil {
		logger.Printf("worker stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("metrics shutdown failed: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Printf("tracing shutdown failed: %v", err)
	}
}
