package usecase

import (
	"context"

	"calmvibe/internal/modules/session/domain"
	sessiondto "calmvibe/internal/modules/session/dto"
	sessionin "calmvibe/internal/modules/session/port/in"
	"calmvibe/internal/modules/session/service"
	"calmvibe/internal/platform/markdown"
)

type HistoryInteractor struct {
	svc *service.RecordService
}

func NewHistoryInteractor(svc *service.RecordService) sessionin.History {
	return &HistoryInteractor{svc: svc}
}

func (h *HistoryInteractor) List(ctx context.Context) ([]sessiondto.RecordOutput, error) {
	records, err := h.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	return toRecordOutputs(records), nil
}

func (h *HistoryInteractor) ListPage(ctx context.Context, input sessiondto.PageInput) (sessiondto.PageOutput, error) {
	var cursor *domain.Cursor
	if input.Cursor != nil {
		id, err := parseID(input.Cursor.ID)
		if err != nil {
			return sessiondto.PageOutput{}, err
		}
		cursor = &domain.Cursor{RecordedAt: input.Cursor.RecordedAt, ID: id}
	}
	page, err := h.svc.Page(ctx, input.Limit, cursor)
	if err != nil {
		return sessiondto.PageOutput{}, err
	}
	out := sessiondto.PageOutput{Records: toRecordOutputs(page.Records), HasNext: page.HasNext()}
	if page.Next != nil {
		out.NextCursor = &sessiondto.Cursor{RecordedAt: page.Next.RecordedAt, ID: formatID(page.Next.ID)}
	}
	return out, nil
}

func (h *HistoryInteractor) Get(ctx context.Context, id string) (sessiondto.RecordOutput, error) {
	recordID, err := parseID(id)
	if err != nil {
		return sessiondto.RecordOutput{}, err
	}
	record, err := h.svc.Get(ctx, recordID)
	if err != nil {
		return sessiondto.RecordOutput{}, err
	}
	return toRecordOutput(record), nil
}

func (h *HistoryInteractor) Update(ctx context.Context, input sessiondto.UpdateInput) (sessiondto.RecordOutput, error) {
	recordID, err := parseID(input.ID)
	if err != nil {
		return sessiondto.RecordOutput{}, err
	}
	draft := toDraft(input.GuideType, input.BPM, input.PreHR, input.PostHR, input.Improvement, input.BreathConfig)
	record, err := h.svc.Update(ctx, recordID, draft)
	if err != nil {
		return sessiondto.RecordOutput{}, err
	}
	return toRecordOutput(record), nil
}

func (h *HistoryInteractor) DeleteMany(ctx context.Context, ids []string) (int, error) {
	parsed := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := parseID(raw)
		if err != nil {
			return 0, err
		}
		parsed = append(parsed, id)
	}
	return h.svc.DeleteMany(ctx, parsed)
}

func (h *HistoryInteractor) Note(ctx context.Context, id string) (sessiondto.NoteOutput, error) {
	recordID, err := parseID(id)
	if err != nil {
		return sessiondto.NoteOutput{}, err
	}
	content, err := h.svc.Note(ctx, recordID)
	if err != nil {
		return sessiondto.NoteOutput{}, err
	}
	return sessiondto.NoteOutput{ID: id, Markdown: content, Body: markdown.Body(content)}, nil
}

func (h *HistoryInteractor) Export(ctx context.Context, dir string) (sessiondto.ExportOutput, error) {
	paths, err := h.svc.Export(ctx, dir)
	if err != nil {
		return sessiondto.ExportOutput{}, err
	}
	return sessiondto.ExportOutput{Dir: dir, Paths: paths}, nil
}
