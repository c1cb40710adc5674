package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pevans/flyerfed/archive"
)

// RunsCommand lists archived runs or the flyers of one run.
type RunsCommand struct {
	opts   *Options
	stdout io.Writer

	Limit  int    `short:"n" long:"limit" default:"10" description:"Number of runs to show"`
	Format string `short:"f" long:"format" default:"table" choice:"table" choice:"json" choice:"compact" description:"Output format"`
	Shop   string `long:"shop" description:"Only show flyers of this shop"`

	Args struct {
		Run string `positional-arg-name:"run-id" description:"Run ID or \"latest\""`
	} `positional-args:"yes"`
}

// Execute implements flags.Commander.
func (c *RunsCommand) Execute(args []string) error {
	settings, err := c.opts.settings()
	if err != nil {
		return err
	}
	if settings.ArchiveDSN == "" {
		return fmt.Errorf("runs requires an archive (--archive or storage.archive.dsn)")
	}

	store, err := archive.NewStore(settings.ArchiveDSN)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	if c.Args.Run == "" {
		return c.listRuns(store)
	}
	return c.showRun(store, c.Args.Run)
}

func (c *RunsCommand) listRuns(store *archive.Store) error {
	runs, err := store.ListRuns(c.Limit)
	if err != nil {
		return err
	}
	total, err := store.CountRuns()
	if err != nil {
		return err
	}

	switch c.Format {
	case "json":
		return printJSON(c.stdout, map[string]any{"runs": runs, "total": total})
	case "compact":
		printRunsCompact(c.stdout, runs)
	default:
		printRunsTable(c.stdout, runs, total)
	}
	return nil
}

func (c *RunsCommand) showRun(store *archive.Store, idParam string) error {
	var run *archive.RunSummary
	var err error
	if idParam == "latest" {
		run, err = store.LatestRun()
	} else {
		id, parseErr := uuid.Parse(idParam)
		if parseErr != nil {
			return fmt.Errorf("invalid run ID: %w", parseErr)
		}
		run, err = store.GetRun(id)
	}
	if err != nil {
		return err
	}

	records, err := store.ListFlyers(run.ID)
	if err != nil {
		return err
	}
	if c.Shop != "" {
		records = filterShop(records, c.Shop)
	}

	switch c.Format {
	case "json":
		return printFlyersJSON(c.stdout, records)
	case "compact":
		printFlyersCompact(c.stdout, records)
	default:
		printRunHeader(c.stdout, run)
		printFlyersTable(c.stdout, records)
	}
	return nil
}
