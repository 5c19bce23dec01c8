package usecase

import (
	"context"
	"sync"
	"time"

	guidancedto "calmvibe/internal/modules/guidance/dto"
	guidancein "calmvibe/internal/modules/guidance/port/in"
	"calmvibe/internal/modules/session/domain"
	sessiondto "calmvibe/internal/modules/session/dto"
	sessionin "calmvibe/internal/modules/session/port/in"
	"calmvibe/internal/modules/session/service"
	settingsdto "calmvibe/internal/modules/settings/dto"
	settingsin "calmvibe/internal/modules/settings/port/in"
	"calmvibe/internal/platform/clock"
	apperrors "calmvibe/internal/platform/errors"

	"github.com/hashicorp/go-hclog"
)

const DefaultMaxDurationSec = 3600

type Options struct {
	Pulses domain.PulseTable
	// MaxDurationSec bounds sessions whose settings have no duration.
	MaxDurationSec int
	Logger         hclog.Logger
}

type Coordinator struct {
	engine   guidancein.Engine
	settings settingsin.Usecase
	records  *service.RecordService
	clock    clock.Clock
	pulses   domain.PulseTable
	maxSec   int
	logger   hclog.Logger

	mu         sync.Mutex
	active     bool
	mode       domain.GuideType
	generation uint64
	startedAt  *time.Time
	endedAt    *time.Time
}

func NewCoordinator(engine guidancein.Engine, settings settingsin.Usecase, records *service.RecordService, clk clock.Clock, opts Options) sessionin.Usecase {
	if opts.Pulses == (domain.PulseTable{}) {
		opts.Pulses = domain.DefaultPulseTable()
	}
	if opts.MaxDurationSec <= 0 {
		opts.MaxDurationSec = DefaultMaxDurationSec
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Coordinator{
		engine:   engine,
		settings: settings,
		records:  records,
		clock:    clk,
		pulses:   opts.Pulses,
		maxSec:   opts.MaxDurationSec,
		logger:   opts.Logger,
	}
}

func (c *Coordinator) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Coordinator) Status() sessiondto.StatusOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := sessiondto.StatusOutput{Active: c.active, StartedAt: c.startedAt}
	if c.active {
		out.Mode = string(c.mode)
	}
	return out
}

// Start holds the coordinator lock until the engine has emitted its first
// step, so listeners must not call back into the coordinator from that step.
func (c *Coordinator) Start(ctx context.Context, input sessiondto.StartInput, listener guidancein.Listener) (sessiondto.StartOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return sessiondto.StartOutput{}, apperrors.ErrAlreadyActive
	}
	mode, err := domain.ParseGuideType(input.Mode)
	if err != nil {
		return sessiondto.StartOutput{}, err
	}
	values, err := c.settings.Get(ctx)
	if err != nil {
		return sessiondto.StartOutput{}, err
	}

	durationSec := c.maxSec
	if values.DurationSec != nil {
		durationSec = *values.DurationSec
	}
	cfg := c.guidanceConfig(mode, values, durationSec)
	startedAt := c.clock.Now()

	c.generation++
	wrapped := &trackingListener{coordinator: c, generation: c.generation, inner: listener}
	if err := c.engine.StartGuidance(ctx, cfg, wrapped); err != nil {
		return sessiondto.StartOutput{}, err
	}
	c.active = true
	c.mode = mode
	c.startedAt = &startedAt
	c.endedAt = nil
	c.logger.Info("session started", "mode", string(mode), "duration_sec", durationSec)

	out := sessiondto.StartOutput{Mode: string(mode), StartedAt: startedAt, DurationSec: durationSec}
	if mode == domain.GuideVibration {
		out.BPM = values.BPM
	} else {
		out.Breath = values.Breath.Summary
	}
	return out, nil
}

func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return apperrors.ErrNotActive
	}
	c.markEndedLocked()
	c.mu.Unlock()

	c.logger.Info("session stopped")
	return c.engine.StopGuidance(ctx)
}

// Complete records the outcome of the latest session, or a manual entry when
// none was started. A still-running session is stopped first.
func (c *Coordinator) Complete(ctx context.Context, input sessiondto.CompleteInput) (sessiondto.RecordOutput, error) {
	draft := toDraft(input.GuideType, input.BPM, input.PreHR, input.PostHR, input.Improvement, input.BreathConfig)
	draft.Notes = input.Notes
	if err := draft.Validate(); err != nil {
		return sessiondto.RecordOutput{}, err
	}

	c.mu.Lock()
	wasActive := c.active
	if wasActive {
		c.markEndedLocked()
	}
	generation := c.generation
	startedAt, endedAt := c.startedAt, c.endedAt
	c.mu.Unlock()

	if wasActive {
		if err := c.engine.StopGuidance(ctx); err != nil {
			c.logger.Warn("stop guidance before recording failed", "error", err)
		}
	}
	if startedAt != nil && endedAt == nil {
		now := c.clock.Now()
		endedAt = &now
	}

	record, err := c.records.Record(ctx, draft, startedAt, endedAt)
	if err != nil {
		return sessiondto.RecordOutput{}, err
	}

	c.mu.Lock()
	if c.generation == generation && !c.active {
		c.startedAt, c.endedAt = nil, nil
	}
	c.mu.Unlock()
	return toRecordOutput(record), nil
}

func (c *Coordinator) UpdateVibrationBPM(ctx context.Context, bpm int) error {
	c.mu.Lock()
	ok := c.active && c.mode == domain.GuideVibration
	c.mu.Unlock()
	if !ok {
		return apperrors.ErrNotVibrationActive
	}
	adjuster, supported := c.engine.(guidancein.TempoAdjuster)
	if !supported {
		return apperrors.ErrUnsupported
	}
	return adjuster.UpdateVibrationBPM(ctx, bpm)
}

func (c *Coordinator) guidanceConfig(mode domain.GuideType, values settingsdto.Settings, durationSec int) guidancedto.Config {
	pattern := []int{c.pulses.Width(values.Intensity)}
	cfg := guidancedto.Config{
		Mode:          string(mode),
		DurationSec:   durationSec,
		VisualEnabled: true,
	}
	if mode == domain.GuideVibration {
		cfg.BPM = values.BPM
		cfg.VibrationPatternMS = pattern
		return cfg
	}
	breath := &guidancedto.BreathConfig{
		InhaleMS:         values.Breath.InhaleSec * 1000,
		ExhaleMS:         values.Breath.ExhaleSec * 1000,
		HapticsPatternMS: pattern,
	}
	if values.Breath.Type == "three-phase" {
		breath.HoldMS = values.Breath.HoldSec * 1000
	}
	if values.Breath.Cycles != nil {
		breath.Cycles = *values.Breath.Cycles
	}
	cfg.Breath = breath
	return cfg
}

func (c *Coordinator) markEndedLocked() {
	now := c.clock.Now()
	c.active = false
	c.endedAt = &now
}

// sessionFinished is called from the engine when the session of generation
// ends on its own or through a stop.
func (c *Coordinator) sessionFinished(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation || !c.active {
		return
	}
	c.markEndedLocked()
}

type trackingListener struct {
	coordinator *Coordinator
	generation  uint64
	inner       guidancein.Listener
}

func (l *trackingListener) OnStep(step guidancedto.Step) {
	if l.inner != nil {
		l.inner.OnStep(step)
	}
}

func (l *trackingListener) OnComplete() {
	l.coordinator.sessionFinished(l.generation)
	if l.inner != nil {
		l.inner.OnComplete()
	}
}

func (l *trackingListener) OnStop() {
	l.coordinator.sessionFinished(l.generation)
	if l.inner != nil {
		l.inner.OnStop()
	}
}

func (l *trackingListener) OnHapticsError(err error) {
	if h, ok := l.inner.(guidancein.HapticsErrorListener); ok {
		h.OnHapticsError(err)
	}
}
