package out

import "context"

// Actuator drives the physical (or simulated) vibration output. A pattern is a
// list of millisecond segments alternating on and off, starting with on.
type Actuator interface {
	Play(ctx context.Context, patternMS []int) error
	Stop(ctx context.Context) error
}
