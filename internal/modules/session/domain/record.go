package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "calmvibe/internal/platform/errors"
)

const SchemaVersion = 1

type GuideType string

const (
	GuideVibration GuideType = "VIBRATION"
	GuideBreath    GuideType = "BREATH"
)

const (
	MinBPM         = 40
	MaxBPM         = 120
	MinHeartRate   = 30
	MaxHeartRate   = 220
	MinImprovement = 1
	MaxImprovement = 5
)

func ParseGuideType(raw string) (GuideType, error) {
	switch g := GuideType(strings.ToUpper(strings.TrimSpace(raw))); g {
	case GuideVibration, GuideBreath:
		return g, nil
	default:
		return "", fmt.Errorf("%w: guide type %q", apperrors.ErrUnsupportedMode, raw)
	}
}

// Record is a persisted session outcome. StartedAt and EndedAt are nil for
// manual entries that were never guided.
type Record struct {
	ID           int64
	RecordedAt   time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
	GuideType    GuideType
	BPM          *int
	PreHR        *int
	PostHR       *int
	Improvement  *int
	BreathConfig string
	Notes        string
}

// Draft is the user-entered part of a record.
type Draft struct {
	GuideType    GuideType
	BPM          *int
	PreHR        *int
	PostHR       *int
	Improvement  *int
	BreathConfig string
	Notes        string
}

func (d Draft) Validate() error {
	switch d.GuideType {
	case GuideVibration, GuideBreath:
	default:
		return fmt.Errorf("%w: guide type %q", apperrors.ErrInvalidInput, d.GuideType)
	}
	if err := checkRange("bpm", d.BPM, MinBPM, MaxBPM); err != nil {
		return err
	}
	if err := checkRange("pre heart rate", d.PreHR, MinHeartRate, MaxHeartRate); err != nil {
		return err
	}
	if err := checkRange("post heart rate", d.PostHR, MinHeartRate, MaxHeartRate); err != nil {
		return err
	}
	return checkRange("improvement", d.Improvement, MinImprovement, MaxImprovement)
}

func checkRange(field string, v *int, lo, hi int) error {
	if v == nil || (*v >= lo && *v <= hi) {
		return nil
	}
	return fmt.Errorf("%w: %s must be between %d and %d", apperrors.ErrInvalidInput, field, lo, hi)
}

// Cursor marks the last record of a page in (RecordedAt, ID) descending order.
type Cursor struct {
	RecordedAt time.Time
	ID         int64
}

type Page struct {
	Records []Record
	Next    *Cursor
}

func (p Page) HasNext() bool { return p.Next != nil }

// PulseTable maps settings intensity to a vibration pulse width in
// milliseconds.
type PulseTable struct {
	LowMS    int
	MediumMS int
	StrongMS int
}

func DefaultPulseTable() PulseTable {
	return PulseTable{LowMS: 80, MediumMS: 150, StrongMS: 250}
}

// Width falls back to the medium width for unknown intensities.
func (p PulseTable) Width(intensity string) int {
	switch strings.ToLower(intensity) {
	case "low":
		return p.LowMS
	case "strong":
		return p.StrongMS
	default:
		return p.MediumMS
	}
}
