package usecase

import (
	"context"

	"calmvibe/internal/modules/actuator/dto"
	actuatorin "calmvibe/internal/modules/actuator/port/in"
	"calmvibe/internal/modules/actuator/service"
)

type Interactor struct {
	svc *service.ActuatorService
}

func NewInteractor(svc *service.ActuatorService) actuatorin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.ActuatorInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) Resolve(ctx context.Context, name string) (dto.ActuatorInfo, error) {
	return i.svc.Resolve(ctx, name)
}
