package dto

import "time"

type StartInput struct {
	Mode string
}

type StartOutput struct {
	Mode        string
	StartedAt   time.Time
	DurationSec int
	BPM         int
	Breath      string
}

type StatusOutput struct {
	Active    bool
	Mode      string
	StartedAt *time.Time
}

type CompleteInput struct {
	GuideType    string
	BPM          *int
	PreHR        *int
	PostHR       *int
	Improvement  *int
	BreathConfig string
	Notes        string
}

type UpdateInput struct {
	ID           string
	GuideType    string
	BPM          *int
	PreHR        *int
	PostHR       *int
	Improvement  *int
	BreathConfig string
}

type RecordOutput struct {
	ID           string
	RecordedAt   time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
	GuideType    string
	BPM          *int
	PreHR        *int
	PostHR       *int
	Improvement  *int
	BreathConfig string
	Notes        string
}

type Cursor struct {
	RecordedAt time.Time
	ID         string
}

type PageInput struct {
	Limit  int
	Cursor *Cursor
}

type PageOutput struct {
	Records    []RecordOutput
	NextCursor *Cursor
	HasNext    bool
}

// NoteOutput carries the full note and its body without frontmatter.
type NoteOutput struct {
	ID       string
	Markdown string
	Body     string
}

type ExportOutput struct {
	Dir   string
	Paths []string
}
