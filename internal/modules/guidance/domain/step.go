package domain

import "time"

// Step is one progress notification of a running session.
type Step struct {
	Elapsed time.Duration
	Cycle   int
	Phase   Phase
}
