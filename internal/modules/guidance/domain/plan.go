package domain

import (
	"fmt"
	"math"
	"time"

	apperrors "calmvibe/internal/platform/errors"
)

type Mode string

const (
	ModeVibration Mode = "VIBRATION"
	ModeBreath    Mode = "BREATH"
)

type Phase string

const (
	PhasePulse  Phase = "PULSE"
	PhaseInhale Phase = "INHALE"
	PhaseHold   Phase = "HOLD"
	PhaseExhale Phase = "EXHALE"
)

// MinInterval keeps very high BPM values from turning into a busy loop.
const MinInterval = 10 * time.Millisecond

// Span is one breath phase with its length and the pattern played on entry.
type Span struct {
	Phase     Phase
	Length    time.Duration
	PatternMS []int
}

// Plan is a validated guidance session ready for scheduling.
type Plan struct {
	Mode     Mode
	Duration time.Duration

	// vibration
	BPM       int
	Interval  time.Duration
	PatternMS []int

	// breath; Cycles == 0 means unbounded
	Spans  []Span
	Cycles int
}

type BreathSpec struct {
	InhaleMS  int
	HoldMS    int
	ExhaleMS  int
	Cycles    int
	PatternMS []int
}

// IntervalFor converts a tempo to the time between beats.
func IntervalFor(bpm int) (time.Duration, error) {
	if bpm <= 0 {
		return 0, fmt.Errorf("%w: got %d", apperrors.ErrInvalidBPM, bpm)
	}
	ms := math.Round(60000 / float64(bpm))
	interval := time.Duration(ms) * time.Millisecond
	if interval < MinInterval {
		interval = MinInterval
	}
	return interval, nil
}

func ValidateDuration(durationSec int) error {
	if durationSec <= 0 {
		return fmt.Errorf("%w: got %d", apperrors.ErrInvalidDuration, durationSec)
	}
	return nil
}

func NewVibrationPlan(bpm, durationSec int, patternMS []int) (Plan, error) {
	if err := ValidateDuration(durationSec); err != nil {
		return Plan{}, err
	}
	interval, err := IntervalFor(bpm)
	if err != nil {
		return Plan{}, err
	}
	if err := validatePattern(patternMS); err != nil {
		return Plan{}, err
	}
	return Plan{
		Mode:      ModeVibration,
		Duration:  time.Duration(durationSec) * time.Second,
		BPM:       bpm,
		Interval:  interval,
		PatternMS: append([]int(nil), patternMS...),
	}, nil
}

func NewBreathPlan(durationSec int, spec BreathSpec) (Plan, error) {
	if err := ValidateDuration(durationSec); err != nil {
		return Plan{}, err
	}
	switch {
	case spec.InhaleMS <= 0:
		return Plan{}, fmt.Errorf("%w: inhale must be positive", apperrors.ErrInvalidBreath)
	case spec.ExhaleMS <= 0:
		return Plan{}, fmt.Errorf("%w: exhale must be positive", apperrors.ErrInvalidBreath)
	case spec.HoldMS < 0:
		return Plan{}, fmt.Errorf("%w: hold must not be negative", apperrors.ErrInvalidBreath)
	case spec.Cycles < 0:
		return Plan{}, fmt.Errorf("%w: cycles must not be negative", apperrors.ErrInvalidBreath)
	}
	if err := validatePattern(spec.PatternMS); err != nil {
		return Plan{}, err
	}

	pattern := append([]int(nil), spec.PatternMS...)
	spans := []Span{{Phase: PhaseInhale, Length: ms(spec.InhaleMS), PatternMS: pattern}}
	if spec.HoldMS > 0 {
		spans = append(spans, Span{Phase: PhaseHold, Length: ms(spec.HoldMS), PatternMS: pattern})
	}
	spans = append(spans, Span{Phase: PhaseExhale, Length: ms(spec.ExhaleMS), PatternMS: pattern})

	return Plan{
		Mode:     ModeBreath,
		Duration: time.Duration(durationSec) * time.Second,
		Spans:    spans,
		Cycles:   spec.Cycles,
	}, nil
}

func validatePattern(patternMS []int) error {
	for _, v := range patternMS {
		if v < 0 {
			return fmt.Errorf("%w: pattern values must not be negative", apperrors.ErrInvalidInput)
		}
	}
	return nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
