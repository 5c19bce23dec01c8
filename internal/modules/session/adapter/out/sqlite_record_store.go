package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"calmvibe/internal/modules/session/domain"
	sessionout "calmvibe/internal/modules/session/port/out"
	apperrors "calmvibe/internal/platform/errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const recordColumns = `id, recordedAt, startedAt, endedAt, guideType, bpm, preHr, postHr, improvement, breathConfig, notes`

const tableDDL = `(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  recordedAt TEXT NOT NULL,
  startedAt TEXT NULL,
  endedAt TEXT NULL,
  guideType TEXT NOT NULL,
  bpm INTEGER NULL,
  preHr INTEGER NULL,
  postHr INTEGER NULL,
  improvement INTEGER NULL,
  breathConfig TEXT NULL,
  notes TEXT NULL
)`

type SQLiteRecordStore struct {
	db    *sql.DB
	cache *lru.Cache[int64, domain.Record]
}

func NewSQLiteRecordStore(db *sql.DB, cacheSize int) (sessionout.RecordStore, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[int64, domain.Record](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}
	store := &SQLiteRecordStore{db: db, cache: cache}
	if err := store.migrate(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

type columnInfo struct {
	name    string
	notNull bool
}

func (s *SQLiteRecordStore) migrate(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(session_records)`)
	if err != nil {
		return fmt.Errorf("inspect session_records: %w", err)
	}
	columns := map[string]columnInfo{}
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = columnInfo{name: name, notNull: notNull == 1}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close table info: %w", err)
	}

	if len(columns) == 0 {
		if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS session_records `+tableDDL); err != nil {
			return fmt.Errorf("create session_records: %w", err)
		}
	} else {
		_, hasRecordedAt := columns["recordedAt"]
		if !hasRecordedAt || columns["startedAt"].notNull || columns["endedAt"].notNull {
			if err := s.rebuild(ctx, columns, hasRecordedAt); err != nil {
				return err
			}
		}
	}
	const index = `CREATE INDEX IF NOT EXISTS idx_session_records_recordedAt_id_desc ON session_records(recordedAt DESC, id DESC)`
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create session_records index: %w", err)
	}
	return nil
}

// rebuild copies a legacy table into the current shape. Legacy rows without a
// recordedAt take their start, then their end, then the migration time.
func (s *SQLiteRecordStore) rebuild(ctx context.Context, columns map[string]columnInfo, hasRecordedAt bool) error {
	pick := func(name string) string {
		if _, ok := columns[name]; ok {
			return name
		}
		return "NULL"
	}
	recordedAt := "COALESCE(startedAt, endedAt, ?)"
	if hasRecordedAt {
		recordedAt = "COALESCE(recordedAt, ?)"
	}
	copyRows := fmt.Sprintf(`INSERT INTO session_records_v2 (%s)
SELECT id, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM session_records`,
		recordColumns, recordedAt, pick("startedAt"), pick("endedAt"), pick("guideType"),
		pick("bpm"), pick("preHr"), pick("postHr"), pick("improvement"), pick("breathConfig"), pick("notes"))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmts := []struct {
		query string
		args  []any
	}{
		{`DROP TABLE IF EXISTS session_records_v2`, nil},
		{`CREATE TABLE session_records_v2 ` + tableDDL, nil},
		{copyRows, []any{formatTime(time.Now())}},
		{`DROP TABLE session_records`, nil},
		{`ALTER TABLE session_records_v2 RENAME TO session_records`, nil},
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("rebuild session_records: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}

func (s *SQLiteRecordStore) Save(ctx context.Context, record domain.Record) (domain.Record, error) {
	breath, err := encodeBreath(record.BreathConfig)
	if err != nil {
		return domain.Record{}, err
	}
	record.RecordedAt = record.RecordedAt.UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO session_records (recordedAt, startedAt, endedAt, guideType, bpm, preHr, postHr, improvement, breathConfig, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(record.RecordedAt),
		formatTimePtr(record.StartedAt),
		formatTimePtr(record.EndedAt),
		string(record.GuideType),
		intOrNil(record.BPM),
		intOrNil(record.PreHR),
		intOrNil(record.PostHR),
		intOrNil(record.Improvement),
		breath,
		stringOrNil(record.Notes),
	)
	if err != nil {
		return domain.Record{}, fmt.Errorf("insert session record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Record{}, fmt.Errorf("read session record id: %w", err)
	}
	record.ID = id
	return record, nil
}

func (s *SQLiteRecordStore) Update(ctx context.Context, record domain.Record) error {
	breath, err := encodeBreath(record.BreathConfig)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE session_records
SET guideType = ?, bpm = ?, preHr = ?, postHr = ?, improvement = ?, breathConfig = ?
WHERE id = ?`,
		string(record.GuideType),
		intOrNil(record.BPM),
		intOrNil(record.PreHR),
		intOrNil(record.PostHR),
		intOrNil(record.Improvement),
		breath,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update session record: %w", err)
	}
	s.cache.Remove(record.ID)
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session record %d: %w", record.ID, apperrors.ErrNotFound)
	}
	return nil
}

func (s *SQLiteRecordStore) Get(ctx context.Context, id int64) (domain.Record, error) {
	if record, ok := s.cache.Get(id); ok {
		return record, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM session_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("session record %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Record{}, err
	}
	s.cache.Add(id, record)
	return record, nil
}

func (s *SQLiteRecordStore) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM session_records ORDER BY recordedAt DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	return collect(rows)
}

// ListPage reads limit+1 rows after cursor to learn whether another page
// exists.
func (s *SQLiteRecordStore) ListPage(ctx context.Context, limit int, cursor *domain.Cursor) (domain.Page, error) {
	if limit < 1 {
		limit = 1
	}
	var (
		rows *sql.Rows
		err  error
	)
	if cursor == nil {
		rows, err = s.db.QueryContext(ctx, `
SELECT `+recordColumns+` FROM session_records
ORDER BY recordedAt DESC, id DESC
LIMIT ?`, limit+1)
	} else {
		at := formatTime(cursor.RecordedAt)
		rows, err = s.db.QueryContext(ctx, `
SELECT `+recordColumns+` FROM session_records
WHERE (recordedAt < ? OR (recordedAt = ? AND id < ?))
ORDER BY recordedAt DESC, id DESC
LIMIT ?`, at, at, cursor.ID, limit+1)
	}
	if err != nil {
		return domain.Page{}, fmt.Errorf("list session page: %w", err)
	}
	records, err := collect(rows)
	if err != nil {
		return domain.Page{}, err
	}
	page := domain.Page{Records: records}
	if len(records) > limit {
		page.Records = records[:limit]
		last := page.Records[limit-1]
		page.Next = &domain.Cursor{RecordedAt: last.RecordedAt, ID: last.ID}
	}
	return page, nil
}

func (s *SQLiteRecordStore) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM session_records WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete session records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted records: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	for _, id := range ids {
		s.cache.Remove(id)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.Record, error) {
	var (
		record                            domain.Record
		recordedAt, guideType             string
		startedAt, endedAt, breath, notes sql.NullString
		bpm, preHR, postHR, improvement   sql.NullInt64
	)
	if err := row.Scan(&record.ID, &recordedAt, &startedAt, &endedAt, &guideType, &bpm, &preHR, &postHR, &improvement, &breath, &notes); err != nil {
		return domain.Record{}, err
	}
	var err error
	if record.RecordedAt, err = parseTime(recordedAt); err != nil {
		return domain.Record{}, err
	}
	if record.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return domain.Record{}, err
	}
	if record.EndedAt, err = parseTimePtr(endedAt); err != nil {
		return domain.Record{}, err
	}
	record.GuideType = domain.GuideType(guideType)
	record.BPM = nullableInt(bpm)
	record.PreHR = nullableInt(preHR)
	record.PostHR = nullableInt(postHR)
	record.Improvement = nullableInt(improvement)
	record.BreathConfig = decodeBreath(breath)
	record.Notes = notes.String
	return record, nil
}

func collect(rows *sql.Rows) ([]domain.Record, error) {
	defer rows.Close()
	var records []domain.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session records: %w", err)
	}
	return records, nil
}

// encodeBreath stores the summary as a JSON string, the format older
// databases already use.
func encodeBreath(summary string) (any, error) {
	if summary == "" {
		return nil, nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode breath config: %w", err)
	}
	return string(raw), nil
}

func decodeBreath(v sql.NullString) string {
	if !v.Valid || v.String == "" {
		return ""
	}
	var summary string
	if err := json.Unmarshal([]byte(v.String), &summary); err == nil {
		return summary
	}
	return v.String
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
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

func stringOrNil(v string) any {
	if v == "" {
		return nil
	}
	return v
}
