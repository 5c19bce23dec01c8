package in

import (
	"context"

	guidancein "calmvibe/internal/modules/guidance/port/in"
	"calmvibe/internal/modules/session/dto"
)

// Usecase coordinates one guided session at a time and records its outcome.
type Usecase interface {
	IsActive() bool
	Status() dto.StatusOutput
	Start(ctx context.Context, input dto.StartInput, listener guidancein.Listener) (dto.StartOutput, error)
	Stop(ctx context.Context) error
	Complete(ctx context.Context, input dto.CompleteInput) (dto.RecordOutput, error)
	UpdateVibrationBPM(ctx context.Context, bpm int) error
}

// History browses and edits recorded sessions.
type History interface {
	List(ctx context.Context) ([]dto.RecordOutput, error)
	ListPage(ctx context.Context, input dto.PageInput) (dto.PageOutput, error)
	Get(ctx context.Context, id string) (dto.RecordOutput, error)
	Update(ctx context.Context, input dto.UpdateInput) (dto.RecordOutput, error)
	DeleteMany(ctx context.Context, ids []string) (int, error)
	Note(ctx context.Context, id string) (dto.NoteOutput, error)
	Export(ctx context.Context, dir string) (dto.ExportOutput, error)
}
