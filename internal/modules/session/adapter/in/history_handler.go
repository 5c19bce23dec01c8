package in

import (
	"context"
	"strconv"

	sessiondto "calmvibe/internal/modules/session/dto"
	sessionin "calmvibe/internal/modules/session/port/in"
)

type HistoryHandler struct {
	history sessionin.History
}

func NewHistoryHandler(history sessionin.History) HistoryHandler {
	return HistoryHandler{history: history}
}

func (h HistoryHandler) List(ctx context.Context) ([]sessiondto.RecordOutput, error) {
	return h.history.List(ctx)
}

func (h HistoryHandler) Page(ctx context.Context, limit int, cursor *sessiondto.Cursor) (sessiondto.PageOutput, error) {
	return h.history.ListPage(ctx, sessiondto.PageInput{Limit: limit, Cursor: cursor})
}

func (h HistoryHandler) Show(ctx context.Context, id string) (sessiondto.NoteOutput, error) {
	return h.history.Note(ctx, id)
}

// Edit replaces the editable fields of record id with fields.
func (h HistoryHandler) Edit(ctx context.Context, id string, fields RecordFields) (sessiondto.RecordOutput, error) {
	input, err := ParseRecord(fields)
	if err != nil {
		return sessiondto.RecordOutput{}, err
	}
	return h.history.Update(ctx, sessiondto.UpdateInput{
		ID:           id,
		GuideType:    input.GuideType,
		BPM:          input.BPM,
		PreHR:        input.PreHR,
		PostHR:       input.PostHR,
		Improvement:  input.Improvement,
		BreathConfig: input.BreathConfig,
	})
}

// Fields renders record back into editable text.
func (h HistoryHandler) Fields(ctx context.Context, id string) (RecordFields, error) {
	record, err := h.history.Get(ctx, id)
	if err != nil {
		return RecordFields{}, err
	}
	return RecordFields{
		GuideType:   record.GuideType,
		BPM:         intText(record.BPM),
		PreHR:       intText(record.PreHR),
		PostHR:      intText(record.PostHR),
		Improvement: intText(record.Improvement),
		Breath:      record.BreathConfig,
		Notes:       record.Notes,
	}, nil
}

func (h HistoryHandler) Delete(ctx context.Context, ids []string) (int, error) {
	return h.history.DeleteMany(ctx, ids)
}

func (h HistoryHandler) Export(ctx context.Context, dir string) (sessiondto.ExportOutput, error) {
	return h.history.Export(ctx, dir)
}

func intText(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
