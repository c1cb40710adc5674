package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pevans/flyerfed/api"
	"github.com/pevans/flyerfed/archive"
)

// ServeCommand serves the run archive over HTTP.
type ServeCommand struct {
	opts *Options
	Addr string `long:"addr" env:"FLYERFED_ADDR" default:"localhost:8080" description:"Listen address"`
}

// Execute implements flags.Commander.
func (c *ServeCommand) Execute(args []string) error {
	settings, err := c.opts.settings()
	if err != nil {
		return err
	}
	if settings.ArchiveDSN == "" {
		return errors.New("serve requires an archive (--archive or storage.archive.dsn)")
	}

	logger, closeLog, err := newLogger(settings.LogFile, settings.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := archive.NewStore(settings.ArchiveDSN)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	router := api.NewAPIServer(store).SetupRouter()

	logger.Info("Starting API server", slog.String("addr", c.Addr))
	fmt.Printf("Serving runs on http://%s/api/v1/runs\n", c.Addr)

	if err := router.Run(c.Addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
