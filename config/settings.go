package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pevans/flyerfed/discovery"
	"github.com/pevans/flyerfed/output"
	"github.com/pevans/flyerfed/scraper"
)

// DefaultLogFile is the log destination when none is configured. "-" means
// standard error.
const DefaultLogFile = "scraper.log"

// Settings is the resolved configuration of one invocation.
type Settings struct {
	BaseURL       string
	ShopCategory  string
	Timeout       time.Duration
	IncludeFuture bool
	UserAgent     string
	Concurrency   int
	OutputPath    string
	ArchiveDSN    string // empty disables the archive
	LogFile       string
	Debug         bool
	Selectors     scraper.Selectors
}

// Overrides are values given on the command line or through the
// environment. Zero values leave the setting untouched.
type Overrides struct {
	BaseURL      string
	ShopCategory string
	Timeout      time.Duration
	ActiveOnly   bool
	UserAgent    string
	Concurrency  int
	OutputPath   string
	ArchiveDSN   string
	LogFile      string
	Debug        bool
}

// Defaults returns settings for prospektmaschine.de.
func Defaults() *Settings {
	service := discovery.DefaultServiceConfig()
	return &Settings{
		BaseURL:       service.BaseURL,
		ShopCategory:  service.ShopCategory,
		Timeout:       discovery.DefaultTimeout,
		IncludeFuture: service.IncludeFuture,
		UserAgent:     discovery.DefaultUserAgent,
		Concurrency:   service.Concurrency,
		OutputPath:    output.DefaultPath,
		LogFile:       DefaultLogFile,
		Selectors:     service.Selectors,
	}
}

// Resolve builds settings with precedence overrides > config file >
// defaults. An empty path means ~/.flyerfed/config.yaml, if it exists.
func Resolve(path string, o Overrides) (*Settings, error) {
	s := Defaults()

	file, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyFile(file); err != nil {
		return nil, err
	}
	s.Apply(o)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyFile overlays the values present in a config file. A nil file is a
// no-op.
func (s *Settings) ApplyFile(f *FileConfig) error {
	if f == nil {
		return nil
	}

	s.BaseURL = or(f.Site.BaseURL, s.BaseURL)
	s.ShopCategory = or(f.Site.Category, s.ShopCategory)
	s.UserAgent = or(f.Site.UserAgent, s.UserAgent)
	if f.Site.Timeout != "" {
		timeout, err := time.ParseDuration(f.Site.Timeout)
		if err != nil {
			return fmt.Errorf("invalid site.timeout: %w", err)
		}
		s.Timeout = timeout
	}

	if f.Scrape.IncludeFuture != nil {
		s.IncludeFuture = *f.Scrape.IncludeFuture
	}
	if f.Scrape.Concurrency != 0 {
		s.Concurrency = f.Scrape.Concurrency
	}
	s.Selectors = f.Scrape.Selectors.Merge(s.Selectors)

	s.OutputPath = or(f.Storage.Output, s.OutputPath)
	s.ArchiveDSN = or(f.Storage.Archive.DSN, s.ArchiveDSN)

	s.LogFile = or(f.Log.File, s.LogFile)
	s.Debug = s.Debug || f.Log.Debug

	return nil
}

// Apply overlays command-line and environment values.
func (s *Settings) Apply(o Overrides) {
	s.BaseURL = or(o.BaseURL, s.BaseURL)
	s.ShopCategory = or(o.ShopCategory, s.ShopCategory)
	s.UserAgent = or(o.UserAgent, s.UserAgent)
	if o.Timeout != 0 {
		s.Timeout = o.Timeout
	}
	if o.ActiveOnly {
		s.IncludeFuture = false
	}
	if o.Concurrency != 0 {
		s.Concurrency = o.Concurrency
	}
	s.OutputPath = or(o.OutputPath, s.OutputPath)
	s.ArchiveDSN = or(o.ArchiveDSN, s.ArchiveDSN)
	s.LogFile = or(o.LogFile, s.LogFile)
	s.Debug = s.Debug || o.Debug
}

// Validate reports settings that cannot produce a working run.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL %q: must be an absolute URL", s.BaseURL)
	}
	if s.Timeout <= 0 {
		return errors.New("invalid timeout: must be positive")
	}
	if s.Concurrency <= 0 {
		return errors.New("invalid concurrency: must be at least 1")
	}
	return nil
}

// ServiceConfig returns the scrape configuration for discovery.NewService.
func (s *Settings) ServiceConfig() *discovery.ServiceConfig {
	return &discovery.ServiceConfig{
		BaseURL:       s.BaseURL,
		ShopCategory:  s.ShopCategory,
		IncludeFuture: s.IncludeFuture,
		Concurrency:   s.Concurrency,
		Selectors:     s.Selectors,
	}
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
