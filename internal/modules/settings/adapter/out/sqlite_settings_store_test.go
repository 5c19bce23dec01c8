package out

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"calmvibe/internal/modules/settings/domain"
	apperrors "calmvibe/internal/platform/errors"
	"calmvibe/internal/platform/sqlite"
)

func newStore(t *testing.T) *SQLiteSettingsStore {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "calmvibe.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := NewSQLiteSettingsStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store.(*SQLiteSettingsStore)
}

func TestLoadBeforeSaveIsNotFound(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	if _, err := store.Load(context.Background()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveRoundTripsNullableFields(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	cycles := 5
	values := domain.Values{
		BPM:       72,
		Intensity: domain.IntensityStrong,
		Breath:    domain.Breath{Type: domain.BreathTwoPhase, InhaleSec: 3, ExhaleSec: 5, Cycles: &cycles},
	}
	if err := store.Save(ctx, values); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BPM != 72 || got.DurationSec != nil || got.Intensity != domain.IntensityStrong {
		t.Fatalf("unexpected values: %+v", got)
	}
	if got.Breath.Type != domain.BreathTwoPhase || got.Breath.Cycles == nil || *got.Breath.Cycles != 5 {
		t.Fatalf("unexpected breath: %+v", got.Breath)
	}

	values = domain.Defaults()
	if err := store.Save(ctx, values); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.DurationSec == nil || *got.DurationSec != 180 || got.Breath.HoldSec != 6 || got.Breath.Cycles != nil {
		t.Fatalf("upsert did not replace row: %+v", got)
	}
}

func TestLoadNormalizesCorruptRow(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	_, err := store.db.ExecContext(ctx, `INSERT INTO settings (id, bpm, duration_sec, intensity, breath_type, inhale_sec, hold_sec, exhale_sec) VALUES (1, 999, 10, 'weird', 'three-phase', 4, 0, 4)`)
	if err != nil {
		t.Fatalf("seed row: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := domain.Defaults()
	if got.BPM != want.BPM || *got.DurationSec != *want.DurationSec || got.Intensity != want.Intensity || got.Breath != want.Breath {
		t.Fatalf("expected defaults, got %+v", got)
	}
}
