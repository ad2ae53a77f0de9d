package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dunamismax/memoryflow/internal/lifecycle"
	"github.com/dunamismax/memoryflow/internal/ui"
	"github.com/dunamismax/memoryflow/internal/wizard"
	"github.com/urfave/cli/v3"
)

func uploadCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload one photo and follow its status in the terminal",
		ArgsUsage: "<photo>",
		Flags: []cli.Flag{
			endpointFlag(),
			&cli.StringFlag{
				Name:    "caption",
				Aliases: []string{"c"},
				Usage:   "caption shown with the photo",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return errors.New("upload needs a photo path")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read photo: %w", err)
			}

			d, shutdown, err := loadDeps(ctx, logger, c.String("endpoint"))
			if err != nil {
				return err
			}
			defer shutdown()

			presenter := ui.NewTerminal(os.Stdout)
			ctrl := lifecycle.NewController(logger, d.normalizer, d.client, presenter, d.lifecycleConfig())
			w := wizard.New(logger, presenter, ctrl, ui.Messages{})

			w.Start()
			w.SelectPhoto(wizard.File{Name: filepath.Base(path), Data: data})
			w.EditCaption(c.String("caption"))
			if err := w.Preview(); err != nil {
				return err
			}

			uploadErr := w.Upload(ctx)
			if err := ctrl.WaitIdle(ctx); err != nil {
				ctrl.Stop()
			}
			return uploadErr
		},
	}
}
