package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/flyerfed/flyer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test archive
func createTestStore(t *testing.T) *Store {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err, "should create archive")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: civil date pointer
func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// Test helper: run started at the given time with the given records
func createTestRun(startedAt time.Time, records ...flyer.Record) *flyer.Run {
	return &flyer.Run{
		ID:            uuid.New(),
		StartedAt:     startedAt,
		FinishedAt:    startedAt.Add(3 * time.Second),
		IncludeFuture: true,
		Shops:         2,
		FailedShops:   1,
		Stats:         flyer.Stats{Nodes: 5, Expired: 2, Kept: len(records)},
		Records:       records,
	}
}

func createTestRecord(title string, to *time.Time) flyer.Record {
	return flyer.Record{
		Title:     title,
		Thumbnail: "https://img.example.com/" + title + ".jpg",
		ShopName:  "Kaufland",
		ValidFrom: *day(2024, 6, 10),
		ValidTo:   to,
		URL:       "https://www.prospektmaschine.de/kaufland/" + title + "/",
		ParsedAt:  time.Date(2024, 6, 15, 10, 0, 0, 123, time.UTC),
		SourceURL: "https://www.prospektmaschine.de/kaufland/",
	}
}

// TestNewStore_ExistingDatabase verifies archived runs survive reopening
func TestNewStore_ExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	store1, err := NewStore(dbPath)
	require.NoError(t, err)
	run := createTestRun(time.Now())
	require.NoError(t, store1.Persist(run))
	store1.Close()

	store2, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

// TestPersist_RoundTrip verifies run metadata and records are stored intact
func TestPersist_RoundTrip(t *testing.T) {
	store := createTestStore(t)
	started := time.Date(2024, 6, 15, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	run := createTestRun(started,
		createTestRecord("erster", day(2024, 6, 22)),
		createTestRecord("offen", nil),
	)

	require.NoError(t, store.Persist(run))

	summary, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.True(t, summary.StartedAt.Equal(started))
	assert.Equal(t, 3*time.Second, summary.Duration())
	assert.True(t, summary.IncludeFuture)
	assert.Equal(t, 2, summary.Shops)
	assert.Equal(t, 1, summary.FailedShops)
	assert.Equal(t, 2, summary.Flyers)
	assert.Equal(t, run.Stats, summary.Stats)

	records, err := store.ListFlyers(run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "erster", records[0].Title)
	assert.Equal(t, "2024-06-10", records[0].ValidFromString())
	assert.Equal(t, "2024-06-22", records[0].ValidToString())
	assert.True(t, records[0].ParsedAt.Equal(run.Records[0].ParsedAt))
	assert.Equal(t, run.Records[0].SourceURL, records[0].SourceURL)
	assert.Equal(t, run.Records[0].Thumbnail, records[0].Thumbnail)

	assert.Equal(t, "offen", records[1].Title)
	assert.Nil(t, records[1].ValidTo)
}

// TestPersist_EmptyRun verifies runs without flyers are archived
func TestPersist_EmptyRun(t *testing.T) {
	store := createTestStore(t)
	run := createTestRun(time.Now())

	require.NoError(t, store.Persist(run))

	records, err := store.ListFlyers(run.ID)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

// TestPersist_DuplicateRun verifies a run ID can only be archived once and
// the failed attempt leaves nothing behind
func TestPersist_DuplicateRun(t *testing.T) {
	store := createTestStore(t)
	run := createTestRun(time.Now(), createTestRecord("a", nil))
	require.NoError(t, store.Persist(run))

	run.Records = append(run.Records, createTestRecord("b", nil))
	assert.Error(t, store.Persist(run))

	records, err := store.ListFlyers(run.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// TestListRuns_NewestFirst verifies ordering and limit
func TestListRuns_NewestFirst(t *testing.T) {
	store := createTestStore(t)
	base := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := createTestRun(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, store.Persist(run))
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, ids[0], runs[2].ID)

	limited, err := store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	total, err := store.CountRuns()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

// TestListRuns_SubSecondOrdering verifies fractional seconds sort correctly
func TestListRuns_SubSecondOrdering(t *testing.T) {
	store := createTestStore(t)
	base := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

	whole := createTestRun(base)
	fraction := createTestRun(base.Add(100 * time.Millisecond))
	require.NoError(t, store.Persist(fraction))
	require.NoError(t, store.Persist(whole))

	latest, err := store.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, fraction.ID, latest.ID)
}

// TestLatestRun_Empty verifies an empty archive reports ErrRunNotFound
func TestLatestRun_Empty(t *testing.T) {
	store := createTestStore(t)

	_, err := store.LatestRun()
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

// TestGetRun_NotFound verifies unknown IDs
func TestGetRun_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.GetRun(uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = store.ListFlyers(uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}
