package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pevans/flyerfed/archive"
	"github.com/pevans/flyerfed/flyer"
	"github.com/pevans/flyerfed/output"
)

// printRunsTable prints runs in human-readable table format
func printRunsTable(w io.Writer, runs []archive.RunSummary, total int) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs archived.")
		return
	}

	fmt.Fprintf(w, "Showing %d of %d runs\n\n", len(runs), total)
	fmt.Fprintf(w, "%-36s %-19s %8s %6s %6s %8s\n", "ID", "STARTED", "DURATION", "SHOPS", "FAILED", "FLYERS")
	fmt.Fprintln(w, "----------------------------------------------------------------------------------------------")

	for _, run := range runs {
		fmt.Fprintf(w, "%-36s %-19s %7.1fs %6d %6d %8d\n",
			run.ID.String(),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration().Seconds(),
			run.Shops,
			run.FailedShops,
			run.Flyers,
		)
	}
}

// printRunsCompact prints one line per run
func printRunsCompact(w io.Writer, runs []archive.RunSummary) {
	for _, run := range runs {
		fmt.Fprintf(w, "%s %s %d flyers\n",
			run.ID.String()[:8],
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Flyers)
	}
}

// printRunHeader prints the summary of one run above its flyers
func printRunHeader(w io.Writer, run *archive.RunSummary) {
	policy := "current and upcoming"
	if !run.IncludeFuture {
		policy = "current only"
	}

	fmt.Fprintf(w, "Run %s\n", run.ID.String())
	fmt.Fprintf(w, "   Started: %s | Duration: %.1fs | Flyers: %s\n",
		run.StartedAt.Local().Format("2006-01-02 15:04:05"),
		run.Duration().Seconds(),
		policy)
	fmt.Fprintf(w, "   Shops: %d (%d failed) | Kept: %d | Expired: %d | Not yet started: %d | Invalid date: %d | Stale: %d\n",
		run.Shops, run.FailedShops,
		run.Stats.Kept, run.Stats.Expired, run.Stats.NotYetStarted,
		run.Stats.InvalidDate, run.Stats.Stale)
	fmt.Fprintln(w)
}

// printFlyersTable prints flyers in human-readable format
func printFlyersTable(w io.Writer, records []flyer.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No flyers to display.")
		return
	}

	for _, rec := range records {
		title := rec.Title
		if len(title) > 70 {
			title = title[:67] + "..."
		}

		validTo := rec.ValidToString()
		if validTo == "" {
			validTo = "open"
		}

		fmt.Fprintf(w, "%s\n", title)
		fmt.Fprintf(w, "   %s | Valid: %s - %s\n", rec.ShopName, rec.ValidFromString(), validTo)
		if rec.URL != "" {
			fmt.Fprintf(w, "   URL: %s\n", rec.URL)
		}
		fmt.Fprintln(w)
	}
}

// printFlyersCompact prints one line per flyer
func printFlyersCompact(w io.Writer, records []flyer.Record) {
	for _, rec := range records {
		fmt.Fprintf(w, "%s %s (%s)\n", rec.ValidFromString(), rec.Title, rec.ShopName)
	}
}

// printFlyersJSON prints flyers in the same shape as the output file
func printFlyersJSON(w io.Writer, records []flyer.Record) error {
	data, err := output.Encode(output.Entries(records))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printJSON prints any value as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func filterShop(records []flyer.Record, shop string) []flyer.Record {
	var filtered []flyer.Record
	for _, rec := range records {
		if rec.ShopName == shop {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
