package in

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	guidancein "calmvibe/internal/modules/guidance/port/in"
	sessiondto "calmvibe/internal/modules/session/dto"
	sessionin "calmvibe/internal/modules/session/port/in"
	apperrors "calmvibe/internal/platform/errors"
)

// RecordFields is the raw text of a record form or command line. Empty
// numeric fields are left unset.
type RecordFields struct {
	GuideType   string
	BPM         string
	PreHR       string
	PostHR      string
	Improvement string
	Breath      string
	Notes       string
}

// Empty reports whether none of the outcome fields were filled in.
func (f RecordFields) Empty() bool {
	return strings.TrimSpace(f.PreHR+f.PostHR+f.Improvement+f.Notes) == ""
}

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, mode string, listener guidancein.Listener) (sessiondto.StartOutput, error) {
	return h.usecase.Start(ctx, sessiondto.StartInput{Mode: mode}, listener)
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Status() sessiondto.StatusOutput {
	return h.usecase.Status()
}

func (h CLIHandler) SetBPM(ctx context.Context, bpm int) error {
	return h.usecase.UpdateVibrationBPM(ctx, bpm)
}

func (h CLIHandler) Record(ctx context.Context, fields RecordFields) (sessiondto.RecordOutput, error) {
	input, err := ParseRecord(fields)
	if err != nil {
		return sessiondto.RecordOutput{}, err
	}
	return h.usecase.Complete(ctx, input)
}

// ParseRecord converts form text to a CompleteInput. Range checks are left to
// the usecase.
func ParseRecord(fields RecordFields) (sessiondto.CompleteInput, error) {
	input := sessiondto.CompleteInput{
		GuideType:    strings.TrimSpace(fields.GuideType),
		BreathConfig: strings.TrimSpace(fields.Breath),
		Notes:        strings.TrimSpace(fields.Notes),
	}
	targets := []struct {
		name string
		raw  string
		dst  **int
	}{
		{"bpm", fields.BPM, &input.BPM},
		{"pre heart rate", fields.PreHR, &input.PreHR},
		{"post heart rate", fields.PostHR, &input.PostHR},
		{"improvement", fields.Improvement, &input.Improvement},
	}
	for _, target := range targets {
		v, err := optionalInt(target.name, target.raw)
		if err != nil {
			return sessiondto.CompleteInput{}, err
		}
		*target.dst = v
	}
	return input, nil
}

func optionalInt(name, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a number", apperrors.ErrInvalidInput, name, raw)
	}
	return &v, nil
}
