package dto

type Breath struct {
	Type      string
	InhaleSec int
	HoldSec   int
	ExhaleSec int
	Cycles    *int
	Summary   string
}

type Settings struct {
	BPM         int
	DurationSec *int
	Intensity   string
	Breath      Breath
}
