package service

import (
	"context"
	"fmt"
	"time"

	"calmvibe/internal/modules/session/domain"
	sessionout "calmvibe/internal/modules/session/port/out"
	"calmvibe/internal/platform/clock"

	"github.com/hashicorp/go-hclog"
)

const DefaultPageSize = 20

type RecordService struct {
	clock  clock.Clock
	store  sessionout.RecordStore
	notes  sessionout.NoteWriter
	logger hclog.Logger
}

func NewRecordService(clk clock.Clock, store sessionout.RecordStore, notes sessionout.NoteWriter, logger hclog.Logger) *RecordService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &RecordService{clock: clk, store: store, notes: notes, logger: logger}
}

// Record validates draft and persists it stamped with the current time.
func (s *RecordService) Record(ctx context.Context, draft domain.Draft, startedAt, endedAt *time.Time) (domain.Record, error) {
	if err := draft.Validate(); err != nil {
		return domain.Record{}, err
	}
	record := domain.Record{
		RecordedAt:   s.clock.Now(),
		StartedAt:    startedAt,
		EndedAt:      endedAt,
		GuideType:    draft.GuideType,
		BPM:          draft.BPM,
		PreHR:        draft.PreHR,
		PostHR:       draft.PostHR,
		Improvement:  draft.Improvement,
		BreathConfig: draft.BreathConfig,
		Notes:        draft.Notes,
	}
	saved, err := s.store.Save(ctx, record)
	if err != nil {
		return domain.Record{}, fmt.Errorf("save session record: %w", err)
	}
	s.logger.Info("session recorded", "id", saved.ID, "guide", string(saved.GuideType))
	return saved, nil
}

func (s *RecordService) Update(ctx context.Context, id int64, draft domain.Draft) (domain.Record, error) {
	if err := draft.Validate(); err != nil {
		return domain.Record{}, err
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	record.GuideType = draft.GuideType
	record.BPM = draft.BPM
	record.PreHR = draft.PreHR
	record.PostHR = draft.PostHR
	record.Improvement = draft.Improvement
	record.BreathConfig = draft.BreathConfig
	if err := s.store.Update(ctx, record); err != nil {
		return domain.Record{}, fmt.Errorf("update session record: %w", err)
	}
	return record, nil
}

func (s *RecordService) Get(ctx context.Context, id int64) (domain.Record, error) {
	return s.store.Get(ctx, id)
}

func (s *RecordService) List(ctx context.Context) ([]domain.Record, error) {
	return s.store.List(ctx)
}

func (s *RecordService) Page(ctx context.Context, limit int, cursor *domain.Cursor) (domain.Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return s.store.ListPage(ctx, limit, cursor)
}

func (s *RecordService) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.store.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete session records: %w", err)
	}
	s.logger.Info("session records deleted", "count", n)
	return n, nil
}

func (s *RecordService) Note(ctx context.Context, id int64) (string, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return RenderNote(record)
}

// Export writes one note per record below root.
func (s *RecordService) Export(ctx context.Context, root string) ([]string, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(records))
	for _, record := range records {
		content, err := RenderNote(record)
		if err != nil {
			return paths, err
		}
		path, err := s.notes.Write(ctx, root, record, content)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
