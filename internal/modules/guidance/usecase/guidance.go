package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"calmvibe/internal/modules/guidance/domain"
	"calmvibe/internal/modules/guidance/dto"
	guidancein "calmvibe/internal/modules/guidance/port/in"
	"calmvibe/internal/modules/guidance/service"
	apperrors "calmvibe/internal/platform/errors"
)

type Interactor struct {
	svc *service.Scheduler
}

func NewInteractor(svc *service.Scheduler) guidancein.Engine {
	return &Interactor{svc: svc}
}

var _ guidancein.TempoAdjuster = (*Interactor)(nil)

func (i *Interactor) IsActive() bool {
	return i.svc.Active()
}

func (i *Interactor) StartGuidance(ctx context.Context, cfg dto.Config, listener guidancein.Listener) error {
	if i.svc.Active() {
		return apperrors.ErrAlreadyRunning
	}
	plan, err := toPlan(cfg)
	if err != nil {
		return err
	}
	if listener == nil {
		listener = guidancein.Callbacks{}
	}
	if _, err := i.svc.Start(ctx, plan, observer{listener: listener}); err != nil {
		return err
	}
	return nil
}

func (i *Interactor) StopGuidance(ctx context.Context) error {
	return i.svc.Stop(ctx)
}

func (i *Interactor) UpdateVibrationBPM(_ context.Context, bpm int) error {
	return i.svc.UpdateTempo(bpm)
}

func toPlan(cfg dto.Config) (domain.Plan, error) {
	if err := domain.ValidateDuration(cfg.DurationSec); err != nil {
		return domain.Plan{}, err
	}
	switch domain.Mode(strings.ToUpper(strings.TrimSpace(cfg.Mode))) {
	case domain.ModeVibration:
		return domain.NewVibrationPlan(cfg.BPM, cfg.DurationSec, cfg.VibrationPatternMS)
	case domain.ModeBreath:
		if cfg.Breath == nil {
			return domain.Plan{}, fmt.Errorf("%w: breath config is required", apperrors.ErrInvalidBreath)
		}
		return domain.NewBreathPlan(cfg.DurationSec, domain.BreathSpec{
			InhaleMS:  cfg.Breath.InhaleMS,
			HoldMS:    cfg.Breath.HoldMS,
			ExhaleMS:  cfg.Breath.ExhaleMS,
			Cycles:    cfg.Breath.Cycles,
			PatternMS: cfg.Breath.HapticsPatternMS,
		})
	default:
		return domain.Plan{}, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedMode, cfg.Mode)
	}
}

type observer struct {
	listener guidancein.Listener
}

func (o observer) Step(step domain.Step) {
	o.listener.OnStep(dto.Step{
		ElapsedSec: int(step.Elapsed / time.Second),
		Cycle:      step.Cycle,
		Phase:      string(step.Phase),
	})
}

func (o observer) Complete() { o.listener.OnComplete() }

func (o observer) Stopped() { o.listener.OnStop() }

func (o observer) ActuationFailed(err error) {
	if l, ok := o.listener.(guidancein.HapticsErrorListener); ok {
		l.OnHapticsError(err)
	}
}
