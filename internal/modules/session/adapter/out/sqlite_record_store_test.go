package out

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"calmvibe/internal/modules/session/domain"
	apperrors "calmvibe/internal/platform/errors"
	"calmvibe/internal/platform/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "calmvibe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRecordStore(t *testing.T, db *sql.DB) *SQLiteRecordStore {
	t.Helper()
	store, err := NewSQLiteRecordStore(db, 8)
	require.NoError(t, err)
	return store.(*SQLiteRecordStore)
}

func intPtr(v int) *int { return &v }

var base = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func TestSaveAssignsIDAndRoundTrips(t *testing.T) {
	t.Parallel()
	store := newRecordStore(t, openDB(t))
	ctx := context.Background()
	started := base.Add(-3 * time.Minute)

	saved, err := store.Save(ctx, domain.Record{
		RecordedAt:   base,
		StartedAt:    &started,
		EndedAt:      &base,
		GuideType:    domain.GuideBreath,
		PreHR:        intPtr(80),
		Improvement:  intPtr(4),
		BreathConfig: "inhale4-hold6-exhale4",
	})
	require.NoError(t, err)
	assert.Positive(t, saved.ID)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, got.RecordedAt.Equal(base))
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Nil(t, got.BPM)
	assert.Equal(t, 80, *got.PreHR)
	assert.Equal(t, "inhale4-hold6-exhale4", got.BreathConfig)

	var raw string
	require.NoError(t, store.db.QueryRow(`SELECT breathConfig FROM session_records WHERE id = ?`, saved.ID).Scan(&raw))
	assert.Equal(t, `"inhale4-hold6-exhale4"`, raw)
}

func TestManualRecordKeepsNullTimestamps(t *testing.T) {
	t.Parallel()
	store := newRecordStore(t, openDB(t))
	ctx := context.Background()

	saved, err := store.Save(ctx, domain.Record{RecordedAt: base, GuideType: domain.GuideVibration, BPM: intPtr(60)})
	require.NoError(t, err)
	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.EndedAt)
}

func TestListPageWalksAllRecordsWithoutDuplicates(t *testing.T) {
	t.Parallel()
	store := newRecordStore(t, openDB(t))
	ctx := context.Background()

	// two records share a timestamp so the id tiebreak is exercised
	stamps := []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(2 * time.Minute), base.Add(3 * time.Minute)}
	for _, at := range stamps {
		_, err := store.Save(ctx, domain.Record{RecordedAt: at, GuideType: domain.GuideVibration})
		require.NoError(t, err)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)

	var walked []domain.Record
	var cursor *domain.Cursor
	pages := 0
	for {
		page, err := store.ListPage(ctx, 2, cursor)
		require.NoError(t, err)
		walked = append(walked, page.Records...)
		pages++
		if !page.HasNext() {
			break
		}
		cursor = page.Next
	}
	assert.Equal(t, 3, pages)
	require.Len(t, walked, 5)
	for i := range all {
		assert.Equal(t, all[i].ID, walked[i].ID)
	}
	assert.True(t, walked[0].RecordedAt.Equal(base.Add(3*time.Minute)))
	assert.Greater(t, walked[1].ID, walked[2].ID)
}

func TestUpdateAndDeleteInvalidateCache(t *testing.T) {
	t.Parallel()
	store := newRecordStore(t, openDB(t))
	ctx := context.Background()

	saved, err := store.Save(ctx, domain.Record{RecordedAt: base, GuideType: domain.GuideVibration, BPM: intPtr(60)})
	require.NoError(t, err)
	other, err := store.Save(ctx, domain.Record{RecordedAt: base, GuideType: domain.GuideBreath})
	require.NoError(t, err)
	_, err = store.Get(ctx, saved.ID)
	require.NoError(t, err)

	saved.BPM = intPtr(72)
	saved.PostHR = intPtr(65)
	require.NoError(t, store.Update(ctx, saved))
	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 72, *got.BPM)
	assert.Equal(t, 65, *got.PostHR)

	n, err := store.DeleteMany(ctx, []int64{saved.ID, other.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = store.Get(ctx, saved.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = store.Update(ctx, domain.Record{ID: 999, GuideType: domain.GuideBreath})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMigrateRebuildsLegacyTable(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	_, err := db.Exec(`CREATE TABLE session_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  startedAt TEXT NOT NULL,
  endedAt TEXT NOT NULL,
  guideType TEXT NOT NULL,
  bpm INTEGER NULL,
  preHr INTEGER NULL,
  postHr INTEGER NULL,
  improvement INTEGER NULL,
  breathConfig TEXT NULL,
  notes TEXT NULL
)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO session_records (startedAt, endedAt, guideType, bpm, breathConfig) VALUES ('2025-01-02T03:04:05.000Z', '2025-01-02T03:07:05.000Z', 'BREATH', NULL, '"inhale4-exhale4"')`)
	require.NoError(t, err)

	store := newRecordStore(t, db)
	ctx := context.Background()
	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	legacy := records[0]
	assert.True(t, legacy.RecordedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, "inhale4-exhale4", legacy.BreathConfig)

	saved, err := store.Save(ctx, domain.Record{RecordedAt: base, GuideType: domain.GuideVibration})
	require.NoError(t, err)
	assert.Greater(t, saved.ID, legacy.ID)
	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartedAt)
}
