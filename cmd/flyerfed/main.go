package main

import (
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pevans/flyerfed/config"
)

// Options are shared by every command. Unset values fall back to the config
// file and then to the built-in defaults.
type Options struct {
	Config      string        `short:"c" long:"config" env:"FLYERFED_CONFIG" description:"Path to config file (default: ~/.flyerfed/config.yaml)"`
	BaseURL     string        `long:"base-url" env:"FLYERFED_BASE_URL" description:"Base URL of the flyer website"`
	Category    string        `long:"category" env:"FLYERFED_CATEGORY" description:"Path of the shop category page"`
	Timeout     time.Duration `long:"timeout" env:"FLYERFED_TIMEOUT" description:"Timeout per page fetch (default: 10s)"`
	UserAgent   string        `long:"user-agent" env:"FLYERFED_USER_AGENT" description:"User agent string for HTTP requests"`
	Concurrency int           `long:"concurrency" env:"FLYERFED_CONCURRENCY" description:"Number of shops processed in parallel (default: 1)"`
	ActiveOnly  bool          `long:"active-only" env:"FLYERFED_ACTIVE_ONLY" description:"Skip flyers that have not started yet"`
	Output      string        `short:"o" long:"output" env:"FLYERFED_OUTPUT" description:"Path of the JSON output file (default: flyers.json)"`
	ArchiveDSN  string        `long:"archive" env:"FLYERFED_ARCHIVE_DSN" description:"Path to the SQLite run archive (disabled when empty)"`
	LogFile     string        `long:"log-file" env:"FLYERFED_LOG_FILE" description:"Log file, - for stderr (default: scraper.log)"`
	Debug       bool          `long:"debug" env:"FLYERFED_DEBUG" description:"Enable debug logging"`
}

// overrides converts the options into config overrides.
func (o *Options) overrides() config.Overrides {
	return config.Overrides{
		BaseURL:      o.BaseURL,
		ShopCategory: o.Category,
		Timeout:      o.Timeout,
		ActiveOnly:   o.ActiveOnly,
		UserAgent:    o.UserAgent,
		Concurrency:  o.Concurrency,
		OutputPath:   o.Output,
		ArchiveDSN:   o.ArchiveDSN,
		LogFile:      o.LogFile,
		Debug:        o.Debug,
	}
}

// settings resolves the effective configuration.
func (o *Options) settings() (*config.Settings, error) {
	return config.Resolve(o.Config, o.overrides())
}

func newParser(opts *Options, stdout io.Writer) *flags.Parser {
	parser := flags.NewParser(opts, flags.Default)
	parser.ShortDescription = "Retail flyer scraper"
	parser.LongDescription = "flyerfed collects currently valid retail flyers from a shop directory " +
		"and writes them to a JSON file and, optionally, a SQLite archive."

	parser.AddCommand("run",
		"Scrape all shops once",
		"Reads the shop directory, extracts valid flyers from every shop and persists the run.",
		&RunCommand{opts: opts, stdout: stdout})
	parser.AddCommand("serve",
		"Serve the run archive over HTTP",
		"Starts a read-only JSON API over the SQLite run archive.",
		&ServeCommand{opts: opts})
	parser.AddCommand("runs",
		"Show archived runs",
		"Lists archived runs, or the flyers of one run when an ID (or \"latest\") is given.",
		&RunsCommand{opts: opts, stdout: stdout})

	return parser
}

func main() {
	var opts Options
	parser := newParser(&opts, os.Stdout)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
