package guide

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	guidancedto "calmvibe/internal/modules/guidance/dto"
	guidancein "calmvibe/internal/modules/guidance/port/in"
	sessioninadapter "calmvibe/internal/modules/session/adapter/in"
	sessiondto "calmvibe/internal/modules/session/dto"
	settingsdto "calmvibe/internal/modules/settings/dto"
	"calmvibe/internal/ui/components"
	"calmvibe/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is what the Guide tab needs from the session and settings handlers.
type Port interface {
	Start(ctx context.Context, mode string, listener guidancein.Listener) (sessiondto.StartOutput, error)
	Stop(ctx context.Context) error
	SetBPM(ctx context.Context, bpm int) error
	Record(ctx context.Context, fields sessioninadapter.RecordFields) (sessiondto.RecordOutput, error)
	Settings(ctx context.Context) (settingsdto.Settings, error)
	SaveBPM(ctx context.Context, bpm int) (settingsdto.Settings, error)
}

const (
	ModeVibration = "VIBRATION"
	ModeBreath    = "BREATH"

	// HapticsNotice is shown once per session when the actuator fails.
	HapticsNotice = "vibration unavailable, continuing visually"

	recordFormID = "record"
	minBPM       = 40
	maxBPM       = 120
)

// ─── messages ────────────────────────────────────────────────────────────────

// SettingsMsg delivers fresh settings, e.g. after a palette change.
type SettingsMsg struct {
	Values settingsdto.Settings
	Err    error
}

// RecordedMsg is emitted after the record form was saved.
type RecordedMsg struct {
	Record sessiondto.RecordOutput
	Err    error
}

type startedMsg struct {
	run int
	out sessiondto.StartOutput
	err error
}

type stoppedMsg struct{ err error }

type bpmMsg struct {
	values settingsdto.Settings
	err    error
}

type stepMsg struct {
	run  int
	step guidancedto.Step
}

type endedMsg struct {
	run    int
	reason string
}

type hapticsMsg struct {
	run int
	err error
}

type tickMsg struct{ run int }

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the Guide tab. Engine callbacks arrive on a buffered channel and
// are turned into messages by waitEvent, one at a time.
type Model struct {
	port     Port
	events   chan tea.Msg
	settings settingsdto.Settings
	loaded   bool

	mode     string
	run      int
	running  bool
	session  sessiondto.StartOutput
	phase    string
	cycle    int
	elapsed  int
	beat     bool
	notice   string

	form     components.Form
	progress progress.Model
	status   string
	width    int
	height   int
}

func New(port Port) Model {
	return Model{
		port:     port,
		events:   make(chan tea.Msg, 256),
		mode:     ModeVibration,
		phase:    "PULSE",
		progress: progress.New(progress.WithGradient(string(theme.Teal), string(theme.Lavender)), progress.WithoutPercentage()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.loadSettingsCmd())
}

// Running reports whether a session started from this tab is in progress.
func (m Model) Running() bool { return m.running }

// Mode is the selected guidance mode.
func (m Model) Mode() string { return m.mode }

// Capturing reports whether the record form owns keyboard input.
func (m Model) Capturing() bool { return m.form.Visible() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(m.width-10, 60))
		m.form.SetWidth(min(m.width-4, 70))

	case SettingsMsg:
		if msg.Err != nil {
			m.status = "settings: " + msg.Err.Error()
			return m, nil
		}
		m.settings = msg.Values
		m.loaded = true

	case bpmMsg:
		if msg.err != nil {
			m.status = "bpm: " + msg.err.Error()
			return m, nil
		}
		m.settings = msg.values
		m.status = fmt.Sprintf("bpm set to %d", msg.values.BPM)

	case startedMsg:
		if msg.run != m.run {
			return m, nil
		}
		if msg.err != nil {
			m.running = false
			m.status = "start failed: " + msg.err.Error()
			return m, nil
		}
		m.session = msg.out
		m.status = "session started"
		return m, m.tick()

	case stoppedMsg:
		if msg.err != nil {
			m.status = "stop failed: " + msg.err.Error()
		}

	case stepMsg:
		if msg.run == m.run && m.running {
			m.phase = msg.step.Phase
			m.cycle = msg.step.Cycle
			m.elapsed = msg.step.ElapsedSec
			m.beat = !m.beat
		}
		return m, m.waitEvent()

	case endedMsg:
		if msg.run == m.run && m.running {
			m.running = false
			m.phase = resetPhase(m.mode)
			m.status = "session " + msg.reason + "; press r to record it"
		}
		return m, m.waitEvent()

	case hapticsMsg:
		if msg.run == m.run && m.notice == "" {
			m.notice = HapticsNotice
		}
		return m, m.waitEvent()

	case tickMsg:
		if msg.run != m.run || !m.running {
			return m, nil
		}
		if !m.session.StartedAt.IsZero() {
			m.elapsed = int(time.Since(m.session.StartedAt).Seconds())
		}
		return m, m.tick()

	case components.FormSubmitMsg:
		if msg.ID != recordFormID {
			return m, nil
		}
		return m, m.recordCmd(recordFields(msg.Values))

	case components.FormCancelMsg:
		if msg.ID == recordFormID {
			m.status = "record discarded"
		}

	case RecordedMsg:
		if msg.Err != nil {
			m.status = "record failed: " + msg.Err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("recorded #%s", msg.Record.ID)

	case tea.KeyMsg:
		if m.form.Visible() {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "m":
		return m.SetMode(""), nil
	case " ", "enter":
		if m.running {
			return m.StopSession()
		}
		return m.StartSession()
	case "+", "=", "right":
		return m.ChangeBPM(1)
	case "-", "left":
		return m.ChangeBPM(-1)
	case "r":
		return m.OpenRecord()
	}
	return m, nil
}

// SetMode selects mode, or toggles it when mode is empty. It is ignored while
// a session runs.
func (m Model) SetMode(mode string) Model {
	if m.running {
		m.status = "stop the session before switching mode"
		return m
	}
	switch mode {
	case "":
		if m.mode == ModeVibration {
			mode = ModeBreath
		} else {
			mode = ModeVibration
		}
	case ModeVibration, ModeBreath:
	default:
		m.status = "unknown mode " + mode
		return m
	}
	m.mode = mode
	m.phase = resetPhase(mode)
	return m
}

// StartSession starts the selected mode with a listener bound to a new run.
func (m Model) StartSession() (Model, tea.Cmd) {
	if m.running {
		m.status = "a session is already running"
		return m, nil
	}
	m.run++
	m.running = true
	m.notice = ""
	m.cycle = 0
	m.elapsed = 0
	m.phase = resetPhase(m.mode)
	m.session = sessiondto.StartOutput{}
	return m, m.startCmd(m.run, m.mode)
}

func (m Model) StopSession() (Model, tea.Cmd) {
	if !m.running {
		m.status = "no session running"
		return m, nil
	}
	return m, m.stopCmd()
}

// ChangeBPM persists the clamped tempo and applies it to a running vibration
// session.
func (m Model) ChangeBPM(delta int) (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	next := min(maxBPM, max(minBPM, m.settings.BPM+delta))
	if next == m.settings.BPM {
		return m, nil
	}
	return m.SetBPM(next)
}

// SetBPM saves bpm as-is so out-of-range values surface the settings error.
func (m Model) SetBPM(bpm int) (Model, tea.Cmd) {
	live := m.running && m.mode == ModeVibration
	return m, m.bpmCmd(bpm, live)
}

// OpenRecord shows the record form prefilled from the current mode.
func (m Model) OpenRecord() (Model, tea.Cmd) {
	bpm, breath := "", ""
	if m.mode == ModeVibration {
		bpm = strconv.Itoa(m.settings.BPM)
		if m.session.BPM > 0 {
			bpm = strconv.Itoa(m.session.BPM)
		}
	} else {
		breath = m.settings.Breath.Summary
		if m.session.Breath != "" {
			breath = m.session.Breath
		}
	}
	m.form = components.NewForm(recordFormID, "Record session", []components.FormField{
		{Label: "Guide", Value: m.mode, Placeholder: "VIBRATION|BREATH"},
		{Label: "BPM", Value: bpm, Placeholder: "40-120"},
		{Label: "Breath", Value: breath},
		{Label: "Pre HR", Placeholder: "30-220"},
		{Label: "Post HR", Placeholder: "30-220"},
		{Label: "Improvement", Placeholder: "1-5"},
		{Label: "Notes"},
	})
	m.form.SetWidth(min(m.width-4, 70))
	cmd := m.form.Open()
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.form.Visible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.View())
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader() + "\n\n")
	sb.WriteString(m.renderVisual() + "\n\n")
	sb.WriteString(m.renderProgress() + "\n")
	if m.notice != "" {
		sb.WriteString("\n" + theme.Hot.Render("! "+m.notice) + "\n")
	}
	if m.status != "" {
		sb.WriteString("\n" + theme.Muted.Render(m.status) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("space: start/stop  m: mode  +/-: bpm  r: record"))
	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}

func (m Model) renderHeader() string {
	modes := []string{ModeVibration, ModeBreath}
	parts := make([]string, len(modes))
	for i, mode := range modes {
		label := " " + strings.ToLower(mode) + " "
		if mode == m.mode {
			parts[i] = theme.Hot.Render(label)
		} else {
			parts[i] = theme.Muted.Render(label)
		}
	}
	line := theme.Title.Render("Guide") + "  " + strings.Join(parts, theme.Muted.Render("│"))
	if !m.loaded {
		return line
	}
	detail := fmt.Sprintf("bpm %d", m.settings.BPM)
	if m.mode == ModeBreath {
		detail = m.settings.Breath.Summary
		if m.settings.Breath.Cycles != nil {
			detail += fmt.Sprintf(" × %d", *m.settings.Breath.Cycles)
		}
	}
	return line + "  " + theme.Muted.Render(detail+"  "+m.settings.Intensity)
}

func (m Model) renderVisual() string {
	color := theme.PhaseColor(m.phase)
	label := m.phase
	glyph := "○"
	if m.running {
		glyph = "●"
		if m.mode == ModeVibration && !m.beat {
			glyph = "◉"
		}
	} else {
		label = "ready"
	}
	body := lipgloss.NewStyle().Foreground(color).Bold(true).Render(glyph + "  " + label)
	if m.running && m.mode == ModeBreath {
		body += theme.Muted.Render(fmt.Sprintf("   cycle %d", m.cycle+1))
	}
	return theme.Pane.BorderForeground(color).Render(body)
}

func (m Model) renderProgress() string {
	if !m.running {
		return theme.Muted.Render("idle")
	}
	total := m.session.DurationSec
	if total <= 0 {
		return theme.Muted.Render("starting…")
	}
	ratio := float64(m.elapsed) / float64(total)
	return m.progress.ViewAs(min(1, ratio)) + "  " +
		theme.Muted.Render(fmt.Sprintf("%s / %s", clockText(m.elapsed), clockText(total)))
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) listener(run int) guidancein.Listener {
	send := func(msg tea.Msg) {
		select {
		case m.events <- msg:
		default:
		}
	}
	return guidancein.Callbacks{
		Step:         func(step guidancedto.Step) { send(stepMsg{run: run, step: step}) },
		Complete:     func() { send(endedMsg{run: run, reason: "completed"}) },
		Stop:         func() { send(endedMsg{run: run, reason: "stopped"}) },
		HapticsError: func(err error) { send(hapticsMsg{run: run, err: err}) },
	}
}

func (m Model) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg { return <-events }
}

func (m Model) tick() tea.Cmd {
	run := m.run
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{run: run} })
}

func (m Model) loadSettingsCmd() tea.Cmd {
	return func() tea.Msg {
		values, err := m.port.Settings(context.Background())
		return SettingsMsg{Values: values, Err: err}
	}
}

func (m Model) startCmd(run int, mode string) tea.Cmd {
	listener := m.listener(run)
	return func() tea.Msg {
		out, err := m.port.Start(context.Background(), mode, listener)
		return startedMsg{run: run, out: out, err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg{err: m.port.Stop(context.Background())}
	}
}

func (m Model) bpmCmd(bpm int, live bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		values, err := m.port.SaveBPM(ctx, bpm)
		if err != nil {
			return bpmMsg{err: err}
		}
		if live {
			if err := m.port.SetBPM(ctx, bpm); err != nil {
				return bpmMsg{err: err}
			}
		}
		return bpmMsg{values: values}
	}
}

func (m Model) recordCmd(fields sessioninadapter.RecordFields) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.port.Record(context.Background(), fields)
		return RecordedMsg{Record: rec, Err: err}
	}
}

func recordFields(values []string) sessioninadapter.RecordFields {
	get := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return sessioninadapter.RecordFields{
		GuideType:   strings.ToUpper(get(0)),
		BPM:         get(1),
		Breath:      get(2),
		PreHR:       get(3),
		PostHR:      get(4),
		Improvement: get(5),
		Notes:       get(6),
	}
}

func resetPhase(mode string) string {
	if mode == ModeBreath {
		return "INHALE"
	}
	return "PULSE"
}

func clockText(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
