package dto

type BreathConfig struct {
	InhaleMS int
	// HoldMS of 0 leaves the hold phase out.
	HoldMS   int
	ExhaleMS int
	// Cycles of 0 runs until the session duration ends.
	Cycles           int
	HapticsPatternMS []int
}

type Config struct {
	Mode               string
	BPM                int
	VibrationPatternMS []int
	Breath             *BreathConfig
	DurationSec        int
	VisualEnabled      bool
}

type Step struct {
	ElapsedSec int
	Cycle      int
	Phase      string
}
