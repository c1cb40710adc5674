package flyer

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO calendar date format used for validity windows.
const DateLayout = "2006-01-02"

// Shop is one entry of the shop directory. Shops are identified by URL.
type Shop struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Record is a single flyer extracted from a shop listing page. Records are
// built once by the discovery builder and never modified afterwards.
type Record struct {
	Title     string
	Thumbnail string
	ShopName  string
	ValidFrom time.Time
	ValidTo   *time.Time // nil means open-ended
	URL       string
	ParsedAt  time.Time
	SourceURL string
}

// ValidFromString renders the start date as YYYY-MM-DD.
func (r Record) ValidFromString() string {
	return r.ValidFrom.Format(DateLayout)
}

// ValidToString renders the end date as YYYY-MM-DD, or "" when the window
// is open-ended.
func (r Record) ValidToString() string {
	if r.ValidTo == nil {
		return ""
	}
	return r.ValidTo.Format(DateLayout)
}

// Key returns the deduplication key of the record.
func (r Record) Key() DedupKey {
	return DedupKey{
		ShopName:  r.ShopName,
		Title:     r.Title,
		ValidFrom: r.ValidFromString(),
		ValidTo:   r.ValidToString(),
	}
}

// DedupKey identifies exact repeats of a flyer within one shop page.
type DedupKey struct {
	ShopName  string
	Title     string
	ValidFrom string
	ValidTo   string
}

// Stats counts what happened to the flyer nodes of one shop or one run.
type Stats struct {
	Nodes         int `json:"nodes"`
	Stale         int `json:"stale"`
	InvalidDate   int `json:"invalid_date"`
	Expired       int `json:"expired"`
	NotYetStarted int `json:"not_yet_started"`
	Duplicates    int `json:"duplicates"`
	NodeErrors    int `json:"node_errors"`
	Kept          int `json:"kept"`
}

// Add returns the sum of both counters.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Nodes:         s.Nodes + o.Nodes,
		Stale:         s.Stale + o.Stale,
		InvalidDate:   s.InvalidDate + o.InvalidDate,
		Expired:       s.Expired + o.Expired,
		NotYetStarted: s.NotYetStarted + o.NotYetStarted,
		Duplicates:    s.Duplicates + o.Duplicates,
		NodeErrors:    s.NodeErrors + o.NodeErrors,
		Kept:          s.Kept + o.Kept,
	}
}

// Count records a decision in the matching counter.
func (s *Stats) Count(d Decision) {
	switch d {
	case Valid:
		s.Kept++
	case Expired:
		s.Expired++
	case NotYetStarted:
		s.NotYetStarted++
	case InvalidDate:
		s.InvalidDate++
	}
}

// Run is the outcome of one complete scrape over the shop directory.
type Run struct {
	ID            uuid.UUID
	StartedAt     time.Time
	FinishedAt    time.Time
	IncludeFuture bool
	Shops         int
	FailedShops   int
	Stats         Stats
	Records       []Record
}

// Duration returns the wall-clock time the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
