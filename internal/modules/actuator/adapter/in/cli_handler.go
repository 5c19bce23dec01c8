package in

import (
	"context"

	"calmvibe/internal/modules/actuator/dto"
	actuatorin "calmvibe/internal/modules/actuator/port/in"
)

type CLIHandler struct {
	usecase actuatorin.Usecase
}

func NewCLIHandler(usecase actuatorin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.ActuatorInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}
