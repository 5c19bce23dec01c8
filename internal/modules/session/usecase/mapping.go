package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"calmvibe/internal/modules/session/domain"
	sessiondto "calmvibe/internal/modules/session/dto"
	apperrors "calmvibe/internal/platform/errors"
)

func toDraft(guideType string, bpm, preHR, postHR, improvement *int, breath string) domain.Draft {
	return domain.Draft{
		GuideType:    domain.GuideType(strings.ToUpper(strings.TrimSpace(guideType))),
		BPM:          bpm,
		PreHR:        preHR,
		PostHR:       postHR,
		Improvement:  improvement,
		BreathConfig: breath,
	}
}

func toRecordOutput(r domain.Record) sessiondto.RecordOutput {
	return sessiondto.RecordOutput{
		ID:           formatID(r.ID),
		RecordedAt:   r.RecordedAt,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		GuideType:    string(r.GuideType),
		BPM:          r.BPM,
		PreHR:        r.PreHR,
		PostHR:       r.PostHR,
		Improvement:  r.Improvement,
		BreathConfig: r.BreathConfig,
		Notes:        r.Notes,
	}
}

func toRecordOutputs(records []domain.Record) []sessiondto.RecordOutput {
	out := make([]sessiondto.RecordOutput, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordOutput(r))
	}
	return out
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: record id %q", apperrors.ErrInvalidInput, raw)
	}
	return id, nil
}
