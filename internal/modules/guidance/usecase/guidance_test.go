package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"calmvibe/internal/modules/guidance/dto"
	guidancein "calmvibe/internal/modules/guidance/port/in"
	"calmvibe/internal/modules/guidance/service"
	"calmvibe/internal/platform/clock"
	apperrors "calmvibe/internal/platform/errors"
	"calmvibe/internal/platform/id"
)

type fakeActuator struct {
	err   error
	plays int
}

func (f *fakeActuator) Play(context.Context, []int) error {
	f.plays++
	return f.err
}

func (f *fakeActuator) Stop(context.Context) error { return nil }

func newEngine(act *fakeActuator) (guidancein.Engine, *clock.Manual) {
	clk := clock.NewManual(time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC))
	return NewInteractor(service.NewScheduler(clk, act, id.UUIDv7{}, nil)), clk
}

func TestStartGuidanceValidationOrder(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		cfg  dto.Config
		want error
	}{
		{"duration before mode", dto.Config{Mode: "DANCE", DurationSec: 0}, apperrors.ErrInvalidDuration},
		{"unknown mode", dto.Config{Mode: "DANCE", DurationSec: 10}, apperrors.ErrUnsupportedMode},
		{"zero bpm", dto.Config{Mode: "VIBRATION", DurationSec: 10}, apperrors.ErrInvalidBPM},
		{"missing breath", dto.Config{Mode: "BREATH", DurationSec: 10}, apperrors.ErrInvalidBreath},
		{"zero inhale", dto.Config{Mode: "BREATH", DurationSec: 10, Breath: &dto.BreathConfig{ExhaleMS: 1000}}, apperrors.ErrInvalidBreath},
	}
	for _, tc := range cases {
		engine, _ := newEngine(&fakeActuator{})
		err := engine.StartGuidance(context.Background(), tc.cfg, nil)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if engine.IsActive() {
			t.Fatalf("%s: engine should stay idle", tc.name)
		}
	}
}

func TestStartGuidanceAlreadyRunningWins(t *testing.T) {
	t.Parallel()
	engine, _ := newEngine(&fakeActuator{})
	cfg := dto.Config{Mode: "VIBRATION", BPM: 60, DurationSec: 60, VibrationPatternMS: []int{100}}
	if err := engine.StartGuidance(context.Background(), cfg, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := engine.StartGuidance(context.Background(), dto.Config{Mode: "DANCE"}, nil)
	if apperrors.Code(err) != "already_running" {
		t.Fatalf("expected already_running, got %v", err)
	}
}

func TestListenerReceivesSecondsAndHapticsError(t *testing.T) {
	t.Parallel()
	act := &fakeActuator{err: errors.New("no motor")}
	engine, clk := newEngine(act)

	var steps []dto.Step
	var hapticErrs int
	completed := false
	listener := guidancein.Callbacks{
		Step:         func(step dto.Step) { steps = append(steps, step) },
		Complete:     func() { completed = true },
		HapticsError: func(error) { hapticErrs++ },
	}
	cfg := dto.Config{Mode: "vibration", BPM: 60, DurationSec: 3, VibrationPatternMS: []int{100}}
	if err := engine.StartGuidance(context.Background(), cfg, listener); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(time.Second)
	if len(steps) != 2 || steps[1] != (dto.Step{ElapsedSec: 1, Cycle: 1, Phase: "PULSE"}) {
		t.Fatalf("unexpected steps: %+v", steps)
	}
	clk.Advance(5 * time.Second)
	if !completed {
		t.Fatalf("expected completion")
	}
	if hapticErrs != 1 {
		t.Fatalf("expected a single haptics error, got %d", hapticErrs)
	}
	if act.plays != 3 {
		t.Fatalf("expected 3 plays, got %d", act.plays)
	}
}

func TestUpdateVibrationBPMThroughCapability(t *testing.T) {
	t.Parallel()
	engine, _ := newEngine(&fakeActuator{})
	adjuster, ok := engine.(guidancein.TempoAdjuster)
	if !ok {
		t.Fatalf("engine should support tempo updates")
	}
	if err := adjuster.UpdateVibrationBPM(context.Background(), 80); !errors.Is(err, apperrors.ErrNotRunning) {
		t.Fatalf("expected not running, got %v", err)
	}
	cfg := dto.Config{Mode: "VIBRATION", BPM: 60, DurationSec: 60}
	if err := engine.StartGuidance(context.Background(), cfg, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := adjuster.UpdateVibrationBPM(context.Background(), 90); err != nil {
		t.Fatalf("update bpm: %v", err)
	}
}
