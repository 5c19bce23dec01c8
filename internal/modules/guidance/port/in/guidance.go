package in

import (
	"context"

	"calmvibe/internal/modules/guidance/dto"
)

type Engine interface {
	IsActive() bool
	StartGuidance(ctx context.Context, cfg dto.Config, listener Listener) error
	StopGuidance(ctx context.Context) error
}

// TempoAdjuster is implemented by engines that can change the tempo of a
// running vibration session in place.
type TempoAdjuster interface {
	UpdateVibrationBPM(ctx context.Context, bpm int) error
}

type Listener interface {
	OnStep(step dto.Step)
	OnComplete()
	OnStop()
}

// HapticsErrorListener is an optional Listener extension notified once per
// session when the actuator first fails.
type HapticsErrorListener interface {
	OnHapticsError(err error)
}

// Callbacks adapts plain functions to Listener. Nil fields are skipped.
type Callbacks struct {
	Step         func(dto.Step)
	Complete     func()
	Stop         func()
	HapticsError func(error)
}

func (c Callbacks) OnStep(step dto.Step) {
	if c.Step != nil {
		c.Step(step)
	}
}

func (c Callbacks) OnComplete() {
	if c.Complete != nil {
		c.Complete()
	}
}

func (c Callbacks) OnStop() {
	if c.Stop != nil {
		c.Stop()
	}
}

func (c Callbacks) OnHapticsError(err error) {
	if c.HapticsError != nil {
		c.HapticsError(err)
	}
}
