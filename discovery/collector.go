package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/flyerfed/flyer"
)

// ShopResult is the outcome of collecting one shop. Err is set when the
// shop page could not be fetched or processing failed as a whole; Records
// is empty in that case.
type ShopResult struct {
	Shop    flyer.Shop
	Records []flyer.Record
	Stats   flyer.Stats
	Err     error
}

// Collector fetches one shop page and extracts its valid flyers.
type Collector struct {
	fetcher       Fetcher
	builder       *Builder
	includeFuture bool
	now           func() time.Time
	logger        *slog.Logger
}

// NewCollector creates a collector that finds flyer cards with the
// builder's selectors.
func NewCollector(
	fetcher Fetcher,
	builder *Builder,
	includeFuture bool,
	now func() time.Time,
	logger *slog.Logger,
) *Collector {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		fetcher:       fetcher,
		builder:       builder,
		includeFuture: includeFuture,
		now:           now,
		logger:        logger,
	}
}

// Collect processes one shop. It never panics and never returns an error
// directly: failures are logged and reported through ShopResult.Err.
func (c *Collector) Collect(ctx context.Context, shop flyer.Shop) (result ShopResult) {
	result.Shop = shop
	log := c.logger.With(slog.String("shop", shop.Name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Failed to process shop", slog.Any("error", r))
			result.Records = nil
			result.Err = fmt.Errorf("failed to process shop %s: %v", shop.Name, r)
		}
	}()

	log.Info("Processing shop", slog.String("url", shop.URL))

	doc, err := c.fetcher.Fetch(ctx, shop.URL)
	if err != nil {
		log.Error("Failed to fetch shop page", slog.String("url", shop.URL), slog.Any("error", err))
		result.Err = err
		return result
	}

	grid := doc.Find(c.builder.selectors.Grid).First()
	if grid.Length() == 0 {
		log.Info("No flyers for shop")
		return result
	}

	today := flyer.Today(c.now())
	seen := make(map[flyer.DedupKey]struct{})

	grid.Find(c.builder.selectors.Node).Each(func(_ int, node *goquery.Selection) {
		result.Stats.Nodes++

		rec, decision, err := c.buildNode(node, shop, today)
		switch {
		case errors.Is(err, ErrStaleFlyer):
			result.Stats.Stale++
			return
		case errors.Is(err, flyer.ErrDateParse):
			result.Stats.InvalidDate++
			log.Error("Invalid date for flyer", slog.Any("error", err))
			return
		case err != nil:
			result.Stats.NodeErrors++
			log.Error("Failed to process flyer", slog.Any("error", err))
			return
		}

		if decision != flyer.Valid {
			result.Stats.Count(decision)
			log.Info("Flyer skipped",
				slog.String("title", rec.Title),
				slog.String("decision", decision.String()),
				slog.String("valid_from", rec.ValidFromString()),
				slog.String("valid_to", rec.ValidToString()))
			return
		}

		key := rec.Key()
		if _, dup := seen[key]; dup {
			result.Stats.Duplicates++
			log.Debug("Duplicate flyer dropped", slog.String("title", rec.Title))
			return
		}
		seen[key] = struct{}{}

		result.Stats.Kept++
		result.Records = append(result.Records, rec)
	})

	log.Info("Extracted flyers for shop", slog.Int("count", len(result.Records)))

	return result
}

// buildNode isolates a single flyer so a failing node cannot take its
// siblings down.
func (c *Collector) buildNode(node *goquery.Selection, shop flyer.Shop, today time.Time) (rec flyer.Record, decision flyer.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	return c.builder.Build(node, shop, today, c.includeFuture)
}
