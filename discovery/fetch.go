package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent identifies the scraper to the target website.
const DefaultUserAgent = "Mozilla/5.0 (compatible; FlyerScraper/1.0)"

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 10 * time.Second

var (
	// ErrTransport marks failed fetches: network errors, timeouts and
	// non-200 responses.
	ErrTransport = errors.New("transport failure")

	// ErrStructure marks pages that lack an expected container.
	ErrStructure = errors.New("unexpected page structure")

	// ErrStaleFlyer is returned by the builder for greyed-out flyers.
	ErrStaleFlyer = errors.New("stale flyer")
)

// StatusError describes a non-200 HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s (%s)", e.Code, http.StatusText(e.Code), e.URL)
}

// Unwrap lets errors.Is(err, ErrTransport) match status errors.
func (e *StatusError) Unwrap() error {
	return ErrTransport
}

// Fetcher retrieves and parses an HTML page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPFetcher fetches pages over HTTP with a fixed per-request timeout.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. Zero values fall back to DefaultTimeout
// and DefaultUserAgent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch performs a GET request and parses the body as HTML. Every failure
// wraps ErrTransport.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch URL: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	// Pages that declare a legacy charset are decoded to UTF-8 first
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode body: %v", ErrTransport, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", ErrTransport, err)
	}
	doc.Url = resp.Request.URL

	return doc, nil
}

// resolve absolutizes href against base. An href that cannot be parsed is
// appended to the base as-is.
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return base.String() + href
	}
	return base.ResolveReference(ref).String()
}
