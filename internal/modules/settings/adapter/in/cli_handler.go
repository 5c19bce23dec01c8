package in

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"calmvibe/internal/modules/settings/dto"
	settingsin "calmvibe/internal/modules/settings/port/in"
	apperrors "calmvibe/internal/platform/errors"
)

type CLIHandler struct {
	usecase settingsin.Usecase
}

func NewCLIHandler(usecase settingsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Change is a partial update; empty strings leave a field untouched. Duration
// and Cycles accept "inf" for unbounded.
type Change struct {
	BPM       string
	Duration  string
	Intensity string
	Breath    string
	Cycles    string
}

func (h CLIHandler) Show(ctx context.Context) (dto.Settings, error) {
	return h.usecase.Get(ctx)
}

func (h CLIHandler) Set(ctx context.Context, change Change) (dto.Settings, error) {
	current, err := h.usecase.Get(ctx)
	if err != nil {
		return dto.Settings{}, err
	}
	next, err := Apply(current, change)
	if err != nil {
		return dto.Settings{}, err
	}
	return h.usecase.Save(ctx, next)
}

// Apply overlays change on current without validating ranges.
func Apply(current dto.Settings, change Change) (dto.Settings, error) {
	next := current
	if change.BPM != "" {
		bpm, err := strconv.Atoi(strings.TrimSpace(change.BPM))
		if err != nil {
			return dto.Settings{}, fmt.Errorf("%w: bpm %q", apperrors.ErrInvalidInput, change.BPM)
		}
		next.BPM = bpm
	}
	if change.Duration != "" {
		d, err := parseOptionalInt(change.Duration)
		if err != nil {
			return dto.Settings{}, fmt.Errorf("%w: duration %q", apperrors.ErrInvalidInput, change.Duration)
		}
		next.DurationSec = d
	}
	if change.Intensity != "" {
		next.Intensity = strings.ToLower(strings.TrimSpace(change.Intensity))
	}
	if change.Breath != "" {
		b, err := parseBreath(change.Breath)
		if err != nil {
			return dto.Settings{}, err
		}
		b.Cycles = next.Breath.Cycles
		next.Breath = b
	}
	if change.Cycles != "" {
		c, err := parseOptionalInt(change.Cycles)
		if err != nil {
			return dto.Settings{}, fmt.Errorf("%w: cycles %q", apperrors.ErrInvalidInput, change.Cycles)
		}
		next.Breath.Cycles = c
	}
	return next, nil
}

func parseOptionalInt(raw string) (*int, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "inf" || raw == "none" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// parseBreath reads "4-6-4" (three-phase) or "4-4" (two-phase) patterns.
func parseBreath(raw string) (dto.Breath, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return dto.Breath{}, fmt.Errorf("%w: breath pattern %q", apperrors.ErrInvalidInput, raw)
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 2:
		return dto.Breath{Type: "two-phase", InhaleSec: nums[0], ExhaleSec: nums[1]}, nil
	case 3:
		return dto.Breath{Type: "three-phase", InhaleSec: nums[0], HoldSec: nums[1], ExhaleSec: nums[2]}, nil
	default:
		return dto.Breath{}, fmt.Errorf("%w: breath pattern %q needs 2 or 3 parts", apperrors.ErrInvalidInput, raw)
	}
}
