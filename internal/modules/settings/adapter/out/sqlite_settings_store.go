package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"calmvibe/internal/modules/settings/domain"
	settingsout "calmvibe/internal/modules/settings/port/out"
	apperrors "calmvibe/internal/platform/errors"
)

// SQLiteSettingsStore keeps the preferences in a single row with id 1.
type SQLiteSettingsStore struct {
	db *sql.DB
}

func NewSQLiteSettingsStore(db *sql.DB) (settingsout.Store, error) {
	store := &SQLiteSettingsStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteSettingsStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS settings (
  id INTEGER PRIMARY KEY NOT NULL,
  bpm INTEGER,
  duration_sec INTEGER NULL,
  intensity TEXT,
  breath_type TEXT,
  inhale_sec INTEGER,
  hold_sec INTEGER NULL,
  exhale_sec INTEGER,
  breath_cycles INTEGER NULL,
  updated_at TEXT
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	return nil
}

func (s *SQLiteSettingsStore) Load(ctx context.Context) (domain.Values, error) {
	const query = `
SELECT bpm, duration_sec, intensity, breath_type, inhale_sec, hold_sec, exhale_sec, breath_cycles
FROM settings WHERE id = 1 LIMIT 1;
`
	var (
		bpm, inhale, exhale    sql.NullInt64
		duration, hold, cycles sql.NullInt64
		intensity, breathType  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query).Scan(&bpm, &duration, &intensity, &breathType, &inhale, &hold, &exhale, &cycles)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Values{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.Values{}, fmt.Errorf("load settings: %w", err)
	}

	breath := domain.Breath{
		Type:      domain.BreathType(breathType.String),
		InhaleSec: int(inhale.Int64),
		ExhaleSec: int(exhale.Int64),
		Cycles:    nullableInt(cycles),
	}
	if breath.Type != domain.BreathTwoPhase {
		breath.Type = domain.BreathThreePhase
		breath.HoldSec = int(hold.Int64)
	}
	values := domain.Values{
		BPM:         int(bpm.Int64),
		DurationSec: nullableInt(duration),
		Intensity:   domain.Intensity(intensity.String),
		Breath:      breath,
	}
	return domain.Normalize(values), nil
}

func (s *SQLiteSettingsStore) Save(ctx context.Context, values domain.Values) error {
	const stmt = `
INSERT INTO settings (id, bpm, duration_sec, intensity, breath_type, inhale_sec, hold_sec, exhale_sec, breath_cycles, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  bpm=excluded.bpm,
  duration_sec=excluded.duration_sec,
  intensity=excluded.intensity,
  breath_type=excluded.breath_type,
  inhale_sec=excluded.inhale_sec,
  hold_sec=excluded.hold_sec,
  exhale_sec=excluded.exhale_sec,
  breath_cycles=excluded.breath_cycles,
  updated_at=excluded.updated_at;
`
	values = domain.Normalize(values)
	var hold any
	if values.Breath.Type == domain.BreathThreePhase {
		hold = values.Breath.HoldSec
	}
	_, err := s.db.ExecContext(ctx, stmt,
		values.BPM,
		intOrNil(values.DurationSec),
		string(values.Intensity),
		string(values.Breath.Type),
		values.Breath.InhaleSec,
		hold,
		values.Breath.ExhaleSec,
		intOrNil(values.Breath.Cycles),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
