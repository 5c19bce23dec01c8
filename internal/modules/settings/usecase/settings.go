package usecase

import (
	"context"

	"calmvibe/internal/modules/settings/domain"
	"calmvibe/internal/modules/settings/dto"
	settingsin "calmvibe/internal/modules/settings/port/in"
	"calmvibe/internal/modules/settings/service"
)

type Interactor struct {
	svc *service.SettingsService
}

func NewInteractor(svc *service.SettingsService) settingsin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Get(ctx context.Context) (dto.Settings, error) {
	return toDTO(i.svc.Get(ctx)), nil
}

func (i *Interactor) Save(ctx context.Context, input dto.Settings) (dto.Settings, error) {
	values := fromDTO(input)
	if err := domain.Validate(values); err != nil {
		return dto.Settings{}, err
	}
	if err := i.svc.Save(ctx, values); err != nil {
		return dto.Settings{}, err
	}
	return toDTO(values), nil
}

func toDTO(v domain.Values) dto.Settings {
	return dto.Settings{
		BPM:         v.BPM,
		DurationSec: v.DurationSec,
		Intensity:   string(v.Intensity),
		Breath: dto.Breath{
			Type:      string(v.Breath.Type),
			InhaleSec: v.Breath.InhaleSec,
			HoldSec:   v.Breath.HoldSec,
			ExhaleSec: v.Breath.ExhaleSec,
			Cycles:    v.Breath.Cycles,
			Summary:   v.Breath.Summary(),
		},
	}
}

func fromDTO(s dto.Settings) domain.Values {
	breath := domain.Breath{
		Type:      domain.BreathType(s.Breath.Type),
		InhaleSec: s.Breath.InhaleSec,
		HoldSec:   s.Breath.HoldSec,
		ExhaleSec: s.Breath.ExhaleSec,
		Cycles:    s.Breath.Cycles,
	}
	if breath.Type == domain.BreathTwoPhase {
		breath.HoldSec = 0
	}
	return domain.Values{
		BPM:         s.BPM,
		DurationSec: s.DurationSec,
		Intensity:   domain.Intensity(s.Intensity),
		Breath:      breath,
	}
}
