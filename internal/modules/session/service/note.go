package service

import (
	"fmt"
	"strings"
	"time"

	"calmvibe/internal/modules/session/domain"
	"calmvibe/internal/platform/markdown"
)

const noteTimeLayout = "2006-01-02T15:04:05Z07:00"

// NoteMeta is the frontmatter of a session note.
type NoteMeta struct {
	SchemaVersion int    `yaml:"schema_version"`
	ID            int64  `yaml:"id"`
	RecordedAt    string `yaml:"recorded_at"`
	StartedAt     string `yaml:"started_at,omitempty"`
	EndedAt       string `yaml:"ended_at,omitempty"`
	GuideType     string `yaml:"guide_type"`
	BPM           *int   `yaml:"bpm,omitempty"`
	PreHR         *int   `yaml:"pre_hr,omitempty"`
	PostHR        *int   `yaml:"post_hr,omitempty"`
	Improvement   *int   `yaml:"improvement,omitempty"`
	Breath        string `yaml:"breath,omitempty"`
}

// RenderNote formats record as markdown with YAML frontmatter.
func RenderNote(record domain.Record) (string, error) {
	meta := NoteMeta{
		SchemaVersion: domain.SchemaVersion,
		ID:            record.ID,
		RecordedAt:    record.RecordedAt.Format(noteTimeLayout),
		GuideType:     string(record.GuideType),
		BPM:           record.BPM,
		PreHR:         record.PreHR,
		PostHR:        record.PostHR,
		Improvement:   record.Improvement,
		Breath:        record.BreathConfig,
	}
	if record.StartedAt != nil {
		meta.StartedAt = record.StartedAt.Format(noteTimeLayout)
	}
	if record.EndedAt != nil {
		meta.EndedAt = record.EndedAt.Format(noteTimeLayout)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "# %s session\n\n", title(record.GuideType))
	fmt.Fprintf(&body, "- Recorded: %s\n", record.RecordedAt.Local().Format("2006-01-02 15:04"))
	if record.StartedAt != nil && record.EndedAt != nil {
		fmt.Fprintf(&body, "- Duration: %s\n", record.EndedAt.Sub(*record.StartedAt).Round(time.Second))
	}
	if record.BPM != nil {
		fmt.Fprintf(&body, "- Tempo: %d bpm\n", *record.BPM)
	}
	if record.BreathConfig != "" {
		fmt.Fprintf(&body, "- Breath: %s\n", record.BreathConfig)
	}
	if record.PreHR != nil || record.PostHR != nil {
		body.WriteString("\n## Heart rate\n\n| before | after |\n|---|---|\n")
		fmt.Fprintf(&body, "| %s | %s |\n", orDash(record.PreHR), orDash(record.PostHR))
	}
	if record.Improvement != nil {
		fmt.Fprintf(&body, "\n## Improvement\n\n%s (%d/5)\n", strings.Repeat("★", *record.Improvement), *record.Improvement)
	}
	if strings.TrimSpace(record.Notes) != "" {
		fmt.Fprintf(&body, "\n## Notes\n\n%s\n", record.Notes)
	}
	return markdown.Render(meta, body.String())
}

func title(g domain.GuideType) string {
	if g == domain.GuideBreath {
		return "Breath"
	}
	return "Vibration"
}

func orDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
