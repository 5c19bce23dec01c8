package out

import (
	"context"

	"calmvibe/internal/modules/settings/domain"
)

type Store interface {
	// Load returns apperrors.ErrNotFound before the first Save.
	Load(ctx context.Context) (domain.Values, error)
	Save(ctx context.Context, values domain.Values) error
}
