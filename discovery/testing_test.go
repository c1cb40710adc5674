package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const testBase = "https://www.prospektmaschine.de"

// Test helper: fetcher serving canned pages by URL
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fails map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{},
		fails: map[string]error{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, u string) (*goquery.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, u)
	f.mu.Unlock()

	if err, ok := f.fails[u]; ok {
		return nil, err
	}
	page, ok := f.pages[u]
	if !ok {
		return nil, &StatusError{URL: u, Code: 404}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(page))
}

// Test helper: logger that discards everything
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Test helper: fixed clock at 2024-06-15 10:00 UTC
func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// Test helper: one flyer card as rendered by the reference site
func flyerCard(title, dates string, old bool) string {
	class := "grid-item"
	if old {
		class += " grid-item-old"
	}
	return fmt.Sprintf(`
	<div class="brochure-thumb">
		<div class="%s">
			<a href="/%s/prospekt/">
				<img src="https://img.example.com/%s.jpg" alt="">
			</a>
			<p class="grid-item-content">
				<strong>%s</strong>
				<small class="hidden-sm">%s</small>
			</p>
		</div>
	</div>`, class, slug(title), slug(title), title, dates)
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

// Test helper: shop page with the given cards inside the flyer grid
func shopPage(cards ...string) string {
	return `<html><body><div class="letaky-grid">` + strings.Join(cards, "") + `</div></body></html>`
}

// Test helper: directory page listing the given name/href pairs
func directoryPage(entries ...[2]string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="list-unstyled categories">`)
	for _, e := range entries {
		fmt.Fprintf(&b, `<li><a href="%s"> %s </a></li>`, e[1], e[0])
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}
