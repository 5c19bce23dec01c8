package out

import (
	"context"

	"calmvibe/internal/modules/session/domain"
)

type RecordStore interface {
	// Save inserts record and returns it with its assigned ID.
	Save(ctx context.Context, record domain.Record) (domain.Record, error)
	Update(ctx context.Context, record domain.Record) error
	Get(ctx context.Context, id int64) (domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
	ListPage(ctx context.Context, limit int, cursor *domain.Cursor) (domain.Page, error)
	DeleteMany(ctx context.Context, ids []int64) (int, error)
}

type NoteWriter interface {
	// Write stores a rendered note for record under root and returns its path.
	Write(ctx context.Context, root string, record domain.Record, content string) (string, error)
}
