package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"calmvibe/internal/modules/guidance/domain"
	guidanceout "calmvibe/internal/modules/guidance/port/out"
	"calmvibe/internal/platform/clock"
	apperrors "calmvibe/internal/platform/errors"
	"calmvibe/internal/platform/id"

	"github.com/hashicorp/go-hclog"
)

// Observer receives session progress. Step and ActuationFailed are called
// while the session is serialized; Complete and Stopped are called with no
// scheduler lock held, so observers may start or stop guidance from them.
type Observer interface {
	Step(step domain.Step)
	Complete()
	Stopped()
	ActuationFailed(err error)
}

const (
	stateRunning int32 = iota
	stateStopped
	stateCompleted
)

// Scheduler runs at most one guidance session at a time on top of a Clock.
type Scheduler struct {
	clock    clock.Clock
	actuator guidanceout.Actuator
	ids      id.Generator
	logger   hclog.Logger

	mu      sync.Mutex
	current *run
}

func NewScheduler(clk clock.Clock, actuator guidanceout.Actuator, ids id.Generator, logger hclog.Logger) *Scheduler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scheduler{clock: clk, actuator: actuator, ids: ids, logger: logger}
}

func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Start registers a session for plan and performs its first actuation and
// step before returning. It returns the run id.
func (s *Scheduler) Start(ctx context.Context, plan domain.Plan, obs Observer) (string, error) {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return "", apperrors.ErrAlreadyRunning
	}
	r := s.newRun(ctx, plan, obs)
	s.current = r
	s.mu.Unlock()

	r.log.Info("guidance started", "duration", plan.Duration, "bpm", plan.BPM, "phases", len(plan.Spans), "cycles", plan.Cycles)
	r.begin()
	return r.id, nil
}

// Stop cancels the running session, if any. The actuator is told to stop even
// when nothing is running.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	s.current = nil
	if r != nil {
		r.state.Store(stateStopped)
	}
	s.mu.Unlock()

	if r != nil {
		r.disarm()
		r.cancel()
	}
	if err := s.actuator.Stop(ctx); err != nil {
		s.logger.Warn("actuator stop failed", "error", err)
	}
	if r == nil {
		return nil
	}
	r.log.Info("guidance stopped", "elapsed", s.clock.Now().Sub(r.startedAt))
	r.settle()
	return nil
}

// UpdateTempo changes the beat interval of the running vibration session. The
// pending beat is rescheduled relative to the last one.
func (s *Scheduler) UpdateTempo(bpm int) error {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil || r.plan.Mode != domain.ModeVibration {
		return apperrors.ErrNotRunning
	}
	interval, err := domain.IntervalFor(bpm)
	if err != nil {
		return err
	}

	r.mu.Lock()
	applied := r.running()
	if applied {
		now := s.clock.Now()
		r.interval = interval
		r.anchorAt, r.anchorCycle = r.lastBeatAt, r.lastCycle
		r.nextAt = r.lastBeatAt.Add(interval)
		if r.nextAt.Before(now) {
			r.nextAt = now
		}
		r.armBeat(r.nextAt.Sub(now))
		r.log.Debug("tempo updated", "bpm", bpm, "interval", interval)
	}
	r.mu.Unlock()
	r.settle()
	if !applied {
		return apperrors.ErrNotRunning
	}
	return nil
}

// finish retires r as the current session if it is still running.
func (s *Scheduler) finish(r *run, state int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !r.state.CompareAndSwap(stateRunning, state) {
		return false
	}
	if s.current == r {
		s.current = nil
	}
	return true
}

func (s *Scheduler) newRun(ctx context.Context, plan domain.Plan, obs Observer) *run {
	runID := s.ids.New()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	now := s.clock.Now()
	return &run{
		sched:      s,
		id:         runID,
		plan:       plan,
		obs:        obs,
		ctx:        runCtx,
		cancel:     cancel,
		startedAt:  now,
		log:        s.logger.With("run_id", runID, "mode", string(plan.Mode)),
		interval:   plan.Interval,
		anchorAt:   now,
		lastBeatAt: now,
	}
}

type run struct {
	sched     *Scheduler
	id        string
	plan      domain.Plan
	obs       Observer
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time
	log       hclog.Logger

	state    atomic.Int32
	stopOnce sync.Once
	failOnce sync.Once

	// mu serializes beats, phase changes, tempo changes and completion. Every
	// holder calls settle after releasing it.
	mu          sync.Mutex
	interval    time.Duration
	anchorAt    time.Time
	anchorCycle int
	lastBeatAt  time.Time
	lastCycle   int
	nextAt      time.Time
	beatSeq     uint64

	timerMu  sync.Mutex
	tick     clock.Timer
	deadline clock.Timer
}

func (r *run) running() bool {
	return r.state.Load() == stateRunning
}

func (r *run) begin() {
	r.mu.Lock()
	r.arm(&r.deadline, r.plan.Duration, r.expire)
	switch r.plan.Mode {
	case domain.ModeVibration:
		r.nextAt = r.startedAt.Add(r.interval)
		if r.emit(r.plan.PatternMS, 0, domain.PhasePulse) {
			r.armBeat(max(0, r.nextAt.Sub(r.sched.clock.Now())))
		}
	case domain.ModeBreath:
		r.enterPhase(0, 0)
	}
	r.mu.Unlock()
	r.settle()
}

// beat fires one vibration pulse. Stale timers from before a tempo change are
// ignored through seq.
func (r *run) beat(seq uint64) {
	r.mu.Lock()
	r.beatLocked(seq)
	r.mu.Unlock()
	r.settle()
}

func (r *run) beatLocked(seq uint64) {
	if !r.running() || seq != r.beatSeq {
		return
	}
	now := r.sched.clock.Now()
	if now.Sub(r.startedAt) >= r.plan.Duration {
		return
	}
	cycle := r.anchorCycle + int(now.Sub(r.anchorAt)/r.interval)
	drift := now.Sub(r.nextAt)
	if !r.emit(r.plan.PatternMS, cycle, domain.PhasePulse) {
		return
	}
	r.lastBeatAt, r.lastCycle = now, cycle

	r.nextAt = r.nextAt.Add(r.interval)
	delay := r.interval - drift - r.sched.clock.Now().Sub(now)
	if delay < 0 {
		// more than a full interval behind; resume from now instead of bursting
		r.nextAt = r.sched.clock.Now()
		delay = 0
	}
	r.armBeat(delay)
}

func (r *run) armBeat(delay time.Duration) {
	r.beatSeq++
	seq := r.beatSeq
	r.arm(&r.tick, delay, func() { r.beat(seq) })
}

func (r *run) enterPhase(idx, cycle int) {
	span := r.plan.Spans[idx]
	if !r.emit(span.PatternMS, cycle, span.Phase) {
		return
	}
	next, nextCycle := idx+1, cycle
	if next == len(r.plan.Spans) {
		next, nextCycle = 0, cycle+1
	}
	r.arm(&r.tick, span.Length, func() { r.advance(next, nextCycle) })
}

func (r *run) advance(idx, cycle int) {
	r.mu.Lock()
	completed := false
	if r.running() {
		if idx == 0 && r.plan.Cycles > 0 && cycle >= r.plan.Cycles {
			completed = r.conclude()
		} else {
			r.enterPhase(idx, cycle)
		}
	}
	r.mu.Unlock()
	if completed {
		r.obs.Complete()
	}
	r.settle()
}

func (r *run) expire() {
	r.mu.Lock()
	completed := r.conclude()
	r.mu.Unlock()
	if completed {
		r.obs.Complete()
	}
	r.settle()
}

func (r *run) conclude() bool {
	if !r.sched.finish(r, stateCompleted) {
		return false
	}
	r.disarm()
	r.cancel()
	r.log.Info("guidance completed", "elapsed", r.sched.clock.Now().Sub(r.startedAt))
	return true
}

// emit plays pattern and reports a step. It reports false once the session is
// no longer running, including when it ended while the actuator was busy.
func (r *run) emit(patternMS []int, cycle int, phase domain.Phase) bool {
	if !r.running() {
		return false
	}
	r.actuate(patternMS)
	if !r.running() {
		return false
	}
	r.obs.Step(domain.Step{
		Elapsed: r.sched.clock.Now().Sub(r.startedAt),
		Cycle:   cycle,
		Phase:   phase,
	})
	return r.running()
}

func (r *run) actuate(patternMS []int) {
	if len(patternMS) == 0 {
		return
	}
	err := r.sched.actuator.Play(r.ctx, patternMS)
	if err == nil || !r.running() {
		return
	}
	r.failOnce.Do(func() {
		r.log.Warn("actuator failed; continuing without haptics", "error", err)
		r.obs.ActuationFailed(fmt.Errorf("%w: %w", apperrors.ErrActuatorUnavailable, err))
	})
}

func (r *run) arm(slot *clock.Timer, d time.Duration, f func()) {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	if !r.running() {
		return
	}
	if *slot != nil {
		(*slot).Stop()
	}
	*slot = r.sched.clock.AfterFunc(d, f)
}

func (r *run) disarm() {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	for _, slot := range []*clock.Timer{&r.tick, &r.deadline} {
		if *slot != nil {
			(*slot).Stop()
			*slot = nil
		}
	}
}

// settle delivers Stopped once a stopped session has no callback in flight.
func (r *run) settle() {
	if r.state.Load() != stateStopped || !r.mu.TryLock() {
		return
	}
	r.mu.Unlock()
	r.stopOnce.Do(r.obs.Stopped)
}
