package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/flyerfed/flyer"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store archives completed runs and their flyers in SQLite.
type Store struct {
	db *sql.DB
}

// RunSummary describes an archived run without its flyers.
type RunSummary struct {
	ID            uuid.UUID   `json:"run_id"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
	IncludeFuture bool        `json:"include_future"`
	Shops         int         `json:"shops"`
	FailedShops   int         `json:"failed_shops"`
	Flyers        int         `json:"flyers"`
	Stats         flyer.Stats `json:"stats"`
}

// Duration returns how long the run took.
func (r RunSummary) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewStore opens (or creates) the archive at dsn.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs and flyers tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		include_future INTEGER NOT NULL,
		shops INTEGER NOT NULL,
		failed_shops INTEGER NOT NULL,
		flyers INTEGER NOT NULL,
		stats TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS flyers (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		thumbnail TEXT NOT NULL,
		shop_name TEXT NOT NULL,
		valid_from TEXT NOT NULL,
		valid_to TEXT,
		url TEXT NOT NULL,
		parsed_at TEXT NOT NULL,
		source_url TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Persist stores a run and all of its records in one transaction.
func (s *Store) Persist(run *flyer.Run) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, started_at, finished_at, include_future,
			shops, failed_shops, flyers, stats
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.IncludeFuture,
		run.Shops,
		run.FailedShops,
		len(run.Records),
		string(stats),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO flyers (
			run_id, position, title, thumbnail, shop_name,
			valid_from, valid_to, url, parsed_at, source_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare flyer insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range run.Records {
		var validTo any
		if rec.ValidTo != nil {
			validTo = rec.ValidToString()
		}

		_, err := stmt.Exec(
			run.ID.String(), i,
			rec.Title, rec.Thumbnail, rec.ShopName,
			rec.ValidFromString(), validTo,
			rec.URL, formatTime(rec.ParsedAt), rec.SourceURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert flyer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

const runColumns = `run_id, started_at, finished_at, include_future,
	shops, failed_shops, flyers, stats`

// ListRuns returns archived runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// CountRuns returns the number of archived runs.
func (s *Store) CountRuns() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// GetRun retrieves a run summary by ID.
func (s *Store) GetRun(id uuid.UUID) (*RunSummary, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", id.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun() (*RunSummary, error) {
	row := s.db.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY started_at DESC LIMIT 1")

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListFlyers returns the records of a run in the order they were extracted.
func (s *Store) ListFlyers(runID uuid.UUID) ([]flyer.Record, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT title, thumbnail, shop_name, valid_from, valid_to,
		       url, parsed_at, source_url
		FROM flyers
		WHERE run_id = ?
		ORDER BY position`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query flyers: %w", err)
	}
	defer rows.Close()

	records := []flyer.Record{}
	for rows.Next() {
		var rec flyer.Record
		var validFrom, parsedAt string
		var validTo sql.NullString

		err := rows.Scan(
			&rec.Title, &rec.Thumbnail, &rec.ShopName,
			&validFrom, &validTo,
			&rec.URL, &parsedAt, &rec.SourceURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flyer: %w", err)
		}

		rec.ValidFrom, err = time.Parse(flyer.DateLayout, validFrom)
		if err != nil {
			return nil, fmt.Errorf("failed to parse valid_from: %w", err)
		}
		if validTo.Valid {
			to, err := time.Parse(flyer.DateLayout, validTo.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse valid_to: %w", err)
			}
			rec.ValidTo = &to
		}
		rec.ParsedAt = parseTime(parsedAt)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flyers: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun parses one row of runColumns. sql.ErrNoRows is returned as-is.
func scanRun(row scanner) (*RunSummary, error) {
	var idStr, startedAt, finishedAt, stats string
	var run RunSummary

	err := row.Scan(
		&idStr, &startedAt, &finishedAt, &run.IncludeFuture,
		&run.Shops, &run.FailedShops, &run.Flyers, &stats,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}
	if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)

	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
