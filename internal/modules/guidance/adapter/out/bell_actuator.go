package out

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	guidanceout "calmvibe/internal/modules/guidance/port/out"
	"calmvibe/internal/platform/clock"
)

const bell = "\a"

// BellActuator rings the terminal bell at the start of every "on" segment of a
// pattern. Pulses still pending from a previous Play are dropped.
type BellActuator struct {
	w     io.Writer
	clock clock.Clock

	mu      sync.Mutex
	pending []clock.Timer
}

func NewBellActuator(w io.Writer, clk clock.Clock) *BellActuator {
	return &BellActuator{w: w, clock: clk}
}

var _ guidanceout.Actuator = (*BellActuator)(nil)

func (b *BellActuator) Play(ctx context.Context, patternMS []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	offsets := OnsetOffsets(patternMS)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelLocked()
	for _, offset := range offsets {
		if offset == 0 {
			if err := b.ring(); err != nil {
				return err
			}
			continue
		}
		b.pending = append(b.pending, b.clock.AfterFunc(offset, b.ringLater))
	}
	return nil
}

func (b *BellActuator) Stop(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelLocked()
	return nil
}

func (b *BellActuator) cancelLocked() {
	for _, t := range b.pending {
		t.Stop()
	}
	b.pending = nil
}

func (b *BellActuator) ringLater() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.ring()
}

func (b *BellActuator) ring() error {
	if _, err := io.WriteString(b.w, bell); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}

// OnsetOffsets returns when each "on" segment of an alternating on/off pattern
// begins, relative to the start of the pattern. Zero-length "on" segments are
// skipped.
func OnsetOffsets(patternMS []int) []time.Duration {
	var (
		offsets []time.Duration
		at      time.Duration
	)
	for i, v := range patternMS {
		if i%2 == 0 && v > 0 {
			offsets = append(offsets, at)
		}
		at += time.Duration(v) * time.Millisecond
	}
	return offsets
}

// SilentActuator accepts every pattern and does nothing.
type SilentActuator struct{}

func (SilentActuator) Play(context.Context, []int) error { return nil }

func (SilentActuator) Stop(context.Context) error { return nil }
