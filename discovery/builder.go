package discovery

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/flyerfed/flyer"
	"github.com/pevans/flyerfed/scraper"
)

// UnknownTitle is used for flyers without a title element.
const UnknownTitle = "Unknown"

// dateSeparator splits "from - to" date ranges.
const dateSeparator = " - "

// Builder turns one flyer card into a candidate record.
type Builder struct {
	baseURL   *url.URL
	selectors scraper.FlyerSelectors
	now       func() time.Time
	logger    *slog.Logger
}

// NewBuilder creates a builder resolving detail links against baseURL.
func NewBuilder(baseURL *url.URL, selectors scraper.FlyerSelectors, now func() time.Time, logger *slog.Logger) *Builder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		baseURL:   baseURL,
		selectors: selectors,
		now:       now,
		logger:    logger,
	}
}

// Build extracts a record from node and classifies it against today.
//
// Stale flyers return ErrStaleFlyer. A missing or unparsable start date
// returns flyer.InvalidDate together with an error wrapping
// flyer.ErrDateParse. Otherwise the record is returned with its decision;
// only flyer.Valid records are meant to be kept.
func (b *Builder) Build(node *goquery.Selection, shop flyer.Shop, today time.Time, includeFuture bool) (flyer.Record, flyer.Decision, error) {
	sel := b.selectors

	if node.Find(sel.Item).First().HasClass(sel.StaleClass) {
		return flyer.Record{}, flyer.InvalidDate, ErrStaleFlyer
	}

	title := UnknownTitle
	if s := node.Find(sel.Title).First(); s.Length() > 0 {
		title = strings.TrimSpace(s.Text())
	}

	dateText := strings.TrimSpace(node.Find(sel.Date).First().Text())

	from, to, err := splitDateRange(dateText)
	if err != nil {
		return flyer.Record{}, flyer.InvalidDate, fmt.Errorf("flyer %q: %w", title, err)
	}

	if to != nil && to.Before(from) {
		b.logger.Warn("Flyer ends before it starts",
			slog.String("shop", shop.Name),
			slog.String("title", title),
			slog.String("dates", dateText))
	}

	rec := flyer.Record{
		Title:     title,
		Thumbnail: b.thumbnail(node),
		ShopName:  shop.Name,
		ValidFrom: from,
		ValidTo:   to,
		URL:       b.detailURL(node),
		ParsedAt:  b.now(),
		SourceURL: shop.URL,
	}

	return rec, flyer.Classify(today, &from, to, includeFuture), nil
}

// splitDateRange parses "DD.MM.YYYY - DD.MM.YYYY". The end date is optional;
// an end that cannot be parsed leaves the window open-ended.
func splitDateRange(text string) (time.Time, *time.Time, error) {
	parts := strings.Split(text, dateSeparator)

	from, err := flyer.ParseDate(parts[0])
	if err != nil {
		return time.Time{}, nil, err
	}

	if len(parts) < 2 {
		return from, nil, nil
	}

	to, err := flyer.ParseDate(parts[1])
	if err != nil {
		return from, nil, nil
	}

	return from, &to, nil
}

// thumbnail returns the first non-empty image attribute.
func (b *Builder) thumbnail(node *goquery.Selection) string {
	img := node.Find(b.selectors.Image).First()
	for _, attr := range b.selectors.ImageAttrs {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

func (b *Builder) detailURL(node *goquery.Selection) string {
	href, ok := node.Find(b.selectors.Link).First().Attr("href")
	if !ok {
		return ""
	}
	return resolve(b.baseURL, href)
}
