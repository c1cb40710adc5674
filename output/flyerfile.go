package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/flyerfed/flyer"
)

// ParsedTimeLayout is the format of the parsed_time field, in local time.
const ParsedTimeLayout = "2006-01-02 15:04:05"

// DefaultPath is where a run is written when no path is configured.
const DefaultPath = "flyers.json"

// Entry is one flyer as it appears in the output file. Field order matters:
// consumers of flyers.json rely on it.
type Entry struct {
	Title      string `json:"title"`
	Thumbnail  string `json:"thumbnail"`
	ShopName   string `json:"shop_name"`
	ValidFrom  string `json:"valid_from"`
	ValidTo    string `json:"valid_to"`
	ParsedTime string `json:"parsed_time"`
	URL        string `json:"url"`
}

// NewEntry converts a record into its serialized form.
func NewEntry(rec flyer.Record) Entry {
	return Entry{
		Title:      rec.Title,
		Thumbnail:  rec.Thumbnail,
		ShopName:   rec.ShopName,
		ValidFrom:  rec.ValidFromString(),
		ValidTo:    rec.ValidToString(),
		ParsedTime: rec.ParsedAt.Local().Format(ParsedTimeLayout),
		URL:        rec.URL,
	}
}

// Entries converts records in order. The result is never nil, so an empty
// run serializes as [].
func Entries(records []flyer.Record) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, NewEntry(rec))
	}
	return entries
}

// FlyerFile writes the records of a run as a JSON array.
type FlyerFile struct {
	path string
}

// NewFlyerFile creates a writer for the given path.
func NewFlyerFile(path string) *FlyerFile {
	if path == "" {
		path = DefaultPath
	}
	return &FlyerFile{path: path}
}

// Path returns the file the writer persists to.
func (f *FlyerFile) Path() string {
	return f.path
}

// Persist replaces the file with the records of run.
func (f *FlyerFile) Persist(run *flyer.Run) error {
	data, err := Encode(Entries(run.Records))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write flyers: %w", err)
	}

	return nil
}

// Encode renders entries with 4-space indentation. Non-ASCII characters and
// HTML-significant characters are written as-is.
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to marshal flyers: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Load reads a file previously written by Persist.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flyers: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flyers: %w", err)
	}

	return entries, nil
}
