package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/flyerfed/flyer"
	"github.com/pevans/flyerfed/scraper"
)

// Sink receives the finished run. Implemented by the JSON file writer and
// the SQLite archive.
type Sink interface {
	Persist(run *flyer.Run) error
}

// ServiceConfig holds configuration for a scrape run.
type ServiceConfig struct {
	// Base URL of the website, e.g. https://www.prospektmaschine.de
	BaseURL string
	// Path of the shop category page, e.g. /hypermarkte
	ShopCategory string
	// Accept flyers that have not started yet
	IncludeFuture bool
	// Number of shops processed in parallel; 1 is strictly sequential
	Concurrency int
	Selectors   scraper.Selectors
}

// DefaultServiceConfig returns the configuration for prospektmaschine.de.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		BaseURL:       "https://www.prospektmaschine.de",
		ShopCategory:  "/hypermarkte",
		IncludeFuture: true,
		Concurrency:   1,
		Selectors:     scraper.DefaultSelectors(),
	}
}

// Service runs one complete scrape: shop directory, every shop page, and
// the hand-off to the sinks.
type Service struct {
	config    *ServiceConfig
	baseURL   *url.URL
	fetcher   Fetcher
	collector *Collector
	sinks     []Sink
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, used for "today" and extraction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger for the service and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithSinks sets where finished runs are persisted.
func WithSinks(sinks ...Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sinks...) }
}

// NewService creates a scrape service.
func NewService(config *ServiceConfig, fetcher Fetcher, opts ...Option) (*Service, error) {
	if config == nil {
		config = DefaultServiceConfig()
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q must be absolute", config.BaseURL)
	}

	cfg := *config
	cfg.Selectors = cfg.Selectors.Merge(scraper.DefaultSelectors())

	s := &Service{
		config:  &cfg,
		baseURL: baseURL,
		fetcher: fetcher,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	builder := NewBuilder(baseURL, cfg.Selectors.Flyer, s.now, s.logger)
	s.collector = NewCollector(fetcher, builder, cfg.IncludeFuture, s.now, s.logger)

	return s, nil
}

// Run scrapes every shop and hands the run to the sinks. The returned run
// is never nil unless ctx was cancelled; the error reports cancellation or
// sink failures.
func (s *Service) Run(ctx context.Context) (*flyer.Run, error) {
	run := &flyer.Run{
		ID:            uuid.New(),
		StartedAt:     s.now(),
		IncludeFuture: s.config.IncludeFuture,
	}

	s.logger.Info("Run starting",
		slog.String("run_id", run.ID.String()),
		slog.Bool("include_future", s.config.IncludeFuture))

	shops := s.Shops(ctx)
	run.Shops = len(shops)

	for _, result := range s.collectAll(ctx, shops) {
		if result.Err != nil {
			run.FailedShops++
		}
		run.Stats = run.Stats.Add(result.Stats)
		run.Records = append(run.Records, result.Records...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.FinishedAt = s.now()

	s.logger.Info("Run finished",
		slog.String("run_id", run.ID.String()),
		slog.Int("flyers", len(run.Records)),
		slog.Int("shops", run.Shops),
		slog.Int("failed_shops", run.FailedShops),
		slog.Duration("duration", run.Duration()))

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Persist(run); err != nil {
			s.logger.Error("Failed to persist run", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	return run, errors.Join(errs...)
}

// Shops reads the shop directory. Failures are logged and yield no shops.
func (s *Service) Shops(ctx context.Context) []flyer.Shop {
	directoryURL := resolve(s.baseURL, s.config.ShopCategory)

	doc, err := s.fetcher.Fetch(ctx, directoryURL)
	if err != nil {
		s.logger.Error("Failed to fetch shop directory",
			slog.String("url", directoryURL),
			slog.Any("error", err))
		return nil
	}

	shops, err := ReadShops(doc, s.baseURL, s.config.Selectors.Directory)
	if err != nil {
		s.logger.Error("Failed to read shop directory",
			slog.String("url", directoryURL),
			slog.Any("error", err))
		return nil
	}

	s.logger.Info("Found shops", slog.Int("count", len(shops)))
	return shops
}

// collectAll processes shops with at most Concurrency workers. Each worker
// writes into the slot of its shop, so results keep directory order.
func (s *Service) collectAll(ctx context.Context, shops []flyer.Shop) []ShopResult {
	results := make([]ShopResult, len(shops))

	concurrency := s.config.Concurrency
	if concurrency <= 1 {
		for i, shop := range shops {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.collector.Collect(ctx, shop)
		}
		return results
	}

	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

loop:
	for i, shop := range shops {
		select {
		case <-ctx.Done():
			break loop
		case semaphore <- struct{}{}:
			wg.Add(1)
			go func(i int, shop flyer.Shop) {
				defer wg.Done()
				defer func() { <-semaphore }()

				results[i] = s.collector.Collect(ctx, shop)
			}(i, shop)
		}
	}

	wg.Wait()
	return results
}
