package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dunamismax/memoryflow/internal/web"
	"github.com/urfave/cli/v3"
)

func serveCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the wizard to browsers over a websocket",
		Flags: []cli.Flag{
			endpointFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (defaults to WIZARD_ADDR)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			d, shutdown, err := loadDeps(ctx, logger, c.String("endpoint"))
			if err != nil {
				return err
			}
			defer shutdown()

			addr := d.cfg.Wizard.Addr
			if v := c.String("addr"); v != "" {
				addr = v
			}

			host := web.NewHost(logger, d.normalizer, d.client, d.lifecycleConfig())
			server := &http.Server{
				Addr:              addr,
				Handler:           host.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Printf("wizard listening on %s endpoint=%s", addr, d.cfg.Upload.Endpoint)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Println("shutting down")
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Printf("graceful shutdown failed: %v", err)
			}
			host.Close()
			return nil
		},
	}
}
