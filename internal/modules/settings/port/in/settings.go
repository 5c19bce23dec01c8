package in

import (
	"context"

	"calmvibe/internal/modules/settings/dto"
)

type Usecase interface {
	Get(ctx context.Context) (dto.Settings, error)
	Save(ctx context.Context, input dto.Settings) (dto.Settings, error)
}
