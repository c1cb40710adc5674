package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/flyerfed/archive"
	"github.com/pevans/flyerfed/discovery"
	"github.com/pevans/flyerfed/output"
)

// RunCommand performs one complete scrape.
type RunCommand struct {
	opts   *Options
	stdout io.Writer
}

// Execute implements flags.Commander.
func (c *RunCommand) Execute(args []string) error {
	settings, err := c.opts.settings()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(settings.LogFile, settings.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	sinks := []discovery.Sink{output.NewFlyerFile(settings.OutputPath)}
	if settings.ArchiveDSN != "" {
		store, err := archive.NewStore(settings.ArchiveDSN)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	fetcher := discovery.NewHTTPFetcher(settings.Timeout, settings.UserAgent)
	service, err := discovery.NewService(settings.ServiceConfig(), fetcher,
		discovery.WithLogger(logger),
		discovery.WithSinks(sinks...))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Script started",
		slog.String("base_url", settings.BaseURL),
		slog.String("category", settings.ShopCategory))

	run, err := service.Run(ctx)
	if run != nil {
		fmt.Fprintf(c.stdout, "Processed %d flyers in %d shops in %.2f seconds\n",
			len(run.Records), run.Shops, run.Duration().Seconds())
		if run.FailedShops > 0 {
			fmt.Fprintf(c.stdout, "  %d shops could not be processed, see %s\n", run.FailedShops, settings.LogFile)
		}
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	return nil
}
