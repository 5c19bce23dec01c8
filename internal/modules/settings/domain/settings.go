package domain

import (
	"fmt"
	"strings"

	apperrors "calmvibe/internal/platform/errors"
)

type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityStrong Intensity = "strong"
)

type BreathType string

const (
	BreathTwoPhase   BreathType = "two-phase"
	BreathThreePhase BreathType = "three-phase"
)

const (
	MinBPM         = 40
	MaxBPM         = 120
	MinDurationSec = 60
	MaxDurationSec = 300
	MinPhaseSec    = 1
	MinCycles      = 1
)

// Breath is a breathing pattern in whole seconds. HoldSec only applies to
// three-phase patterns; a nil Cycles repeats until the session ends.
type Breath struct {
	Type      BreathType
	InhaleSec int
	HoldSec   int
	ExhaleSec int
	Cycles    *int
}

// Values are the persisted user preferences. A nil DurationSec means the
// session has no configured end.
type Values struct {
	BPM         int
	DurationSec *int
	Intensity   Intensity
	Breath      Breath
}

func DefaultBreath() Breath {
	return Breath{Type: BreathThreePhase, InhaleSec: 4, HoldSec: 6, ExhaleSec: 4}
}

func Defaults() Values {
	duration := 180
	return Values{
		BPM:         60,
		DurationSec: &duration,
		Intensity:   IntensityMedium,
		Breath:      DefaultBreath(),
	}
}

func ParseIntensity(raw string) (Intensity, error) {
	switch v := Intensity(strings.ToLower(strings.TrimSpace(raw))); v {
	case IntensityLow, IntensityMedium, IntensityStrong:
		return v, nil
	default:
		return "", fmt.Errorf("%w: intensity must be low, medium or strong", apperrors.ErrInvalidInput)
	}
}

// Normalize replaces each out-of-range field with its default. An invalid
// breath pattern is replaced as a whole.
func Normalize(v Values) Values {
	def := Defaults()
	out := v
	if v.BPM < MinBPM || v.BPM > MaxBPM {
		out.BPM = def.BPM
	}
	if v.DurationSec != nil && (*v.DurationSec < MinDurationSec || *v.DurationSec > MaxDurationSec) {
		out.DurationSec = def.DurationSec
	}
	if _, err := ParseIntensity(string(v.Intensity)); err != nil {
		out.Intensity = def.Intensity
	}
	if validateBreath(v.Breath) != nil {
		out.Breath = def.Breath
	}
	if out.Breath.Type == BreathTwoPhase {
		out.Breath.HoldSec = 0
	}
	return out
}

// Validate reports the first out-of-range field.
func Validate(v Values) error {
	if v.BPM < MinBPM || v.BPM > MaxBPM {
		return fmt.Errorf("%w: bpm must be between %d and %d", apperrors.ErrInvalidInput, MinBPM, MaxBPM)
	}
	if v.DurationSec != nil && (*v.DurationSec < MinDurationSec || *v.DurationSec > MaxDurationSec) {
		return fmt.Errorf("%w: duration must be between %d and %d seconds", apperrors.ErrInvalidInput, MinDurationSec, MaxDurationSec)
	}
	if _, err := ParseIntensity(string(v.Intensity)); err != nil {
		return err
	}
	return validateBreath(v.Breath)
}

func validateBreath(b Breath) error {
	switch b.Type {
	case BreathTwoPhase, BreathThreePhase:
	default:
		return fmt.Errorf("%w: breath type must be two-phase or three-phase", apperrors.ErrInvalidInput)
	}
	if b.Cycles != nil && *b.Cycles < MinCycles {
		return fmt.Errorf("%w: cycles must be at least %d", apperrors.ErrInvalidInput, MinCycles)
	}
	if b.InhaleSec < MinPhaseSec || b.ExhaleSec < MinPhaseSec {
		return fmt.Errorf("%w: inhale and exhale must be at least %d second", apperrors.ErrInvalidInput, MinPhaseSec)
	}
	if b.Type == BreathThreePhase && b.HoldSec < MinPhaseSec {
		return fmt.Errorf("%w: hold must be at least %d second", apperrors.ErrInvalidInput, MinPhaseSec)
	}
	return nil
}

// Summary renders the pattern compactly, e.g. "inhale4-hold6-exhale4".
func (b Breath) Summary() string {
	if b.Type == BreathThreePhase {
		return fmt.Sprintf("inhale%d-hold%d-exhale%d", b.InhaleSec, b.HoldSec, b.ExhaleSec)
	}
	return fmt.Sprintf("inhale%d-exhale%d", b.InhaleSec, b.ExhaleSec)
}
