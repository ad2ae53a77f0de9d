package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/memoryflow/internal/config"
	"github.com/dunamismax/memoryflow/internal/lifecycle"
	"github.com/dunamismax/memoryflow/internal/normalize"
	"github.com/dunamismax/memoryflow/internal/remote"
	"github.com/dunamismax/memoryflow/internal/telemetry"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := log.New(os.Stderr, "[wizard] ", log.LstdFlags|log.Lmsgprefix)

	cmd := &cli.Command{
		Name:  "wizard",
		Usage: "Share a photo memory with a caption",
		Commands: []*cli.Command{
			uploadCommand(logger),
			serveCommand(logger),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}

func endpointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "endpoint",
		Usage: "upload endpoint (defaults to UPLOAD_ENDPOINT)",
	}
}

// deps holds what every subcommand needs to run an upload lifecycle.
type deps struct {
	cfg        config.Config
	normalizer *normalize.Normalizer
	client     *remote.Client
}

// loadDeps reads the environment, installs tracing and builds the pieces an
// upload lifecycle needs. The returned func releases them in reverse order.
func loadDeps(ctx context.Context, logger *log.Logger, endpoint string) (deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return deps{}, nil, err
	}
	if endpoint != "" {
		cfg.Upload.Endpoint = endpoint
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		Component:    "wizard",
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
	}, logger)
	if err != nil {
		return deps{}, nil, fmt.Errorf("setup tracing: %w", err)
	}
	stopTracing := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}

	if err := normalize.Startup(); err != nil {
		stopTracing()
		return deps{}, nil, err
	}
	release := func() {
		normalize.Shutdown()
		stopTracing()
	}

	normalizer, err := normalize.New(normalize.Config{
		MaxLongSide: cfg.Image.MaxLongSide,
		Quality:     cfg.Image.Quality,
	})
	if err != nil {
		release()
		return deps{}, nil, err
	}

	client, err := remote.NewClient(remote.Config{
		Endpoint:      cfg.Upload.Endpoint,
		SigningSecret: cfg.Upload.SigningSecret,
		Timeout:       cfg.Upload.Timeout,
	})
	if err != nil {
		release()
		return deps{}, nil, err
	}

	return deps{cfg: cfg, normalizer: normalizer, client: client}, release, nil
}

func (d deps) lifecycleConfig() lifecycle.Config {
	return lifecycle.Config{
		Timings: lifecycle.Timings{
			DotsInterval: d.cfg.Wizard.DotsInterval,
			MinDuration:  d.cfg.Wizard.MinDuration,
			SwapDelay:    d.cfg.Wizard.SwapDelay,
		},
		MaxLongSide: d.cfg.Image.MaxLongSide,
	}
}
