package in

import (
	"context"

	"calmvibe/internal/modules/actuator/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.ActuatorInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	// Resolve returns an enabled, checksum-verified actuator that answered a
	// metadata call and can vibrate.
	Resolve(ctx context.Context, name string) (dto.ActuatorInfo, error)
}
