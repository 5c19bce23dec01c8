package app

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"

	guidancein "calmvibe/internal/modules/guidance/port/in"
	sessioninadapter "calmvibe/internal/modules/session/adapter/in"
	sessiondto "calmvibe/internal/modules/session/dto"
	settingsinadapter "calmvibe/internal/modules/settings/adapter/in"
	settingsdto "calmvibe/internal/modules/settings/dto"
	"calmvibe/internal/ui/components"
	"calmvibe/internal/ui/theme"
	guideview "calmvibe/internal/ui/views/guide"
	logsview "calmvibe/internal/ui/views/logs"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type SessionPort interface {
	Start(ctx context.Context, mode string, listener guidancein.Listener) (sessiondto.StartOutput, error)
	Stop(ctx context.Context) error
	SetBPM(ctx context.Context, bpm int) error
	Record(ctx context.Context, fields sessioninadapter.RecordFields) (sessiondto.RecordOutput, error)
}

type HistoryPort interface {
	Page(ctx context.Context, limit int, cursor *sessiondto.Cursor) (sessiondto.PageOutput, error)
	Show(ctx context.Context, id string) (sessiondto.NoteOutput, error)
	Fields(ctx context.Context, id string) (sessioninadapter.RecordFields, error)
	Edit(ctx context.Context, id string, fields sessioninadapter.RecordFields) (sessiondto.RecordOutput, error)
	Delete(ctx context.Context, ids []string) (int, error)
	Export(ctx context.Context, dir string) (sessiondto.ExportOutput, error)
}

type SettingsPort interface {
	Show(ctx context.Context) (settingsdto.Settings, error)
	Set(ctx context.Context, change settingsinadapter.Change) (settingsdto.Settings, error)
}

// Deps wires the TUI to the application handlers.
type Deps struct {
	Session  SessionPort
	History  HistoryPort
	Settings SettingsPort
	// NotesDir is the default target of the export command.
	NotesDir string
	Logger   hclog.Logger
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabGuide tabID = iota
	tabLogs
	tabCount
)

var tabLabels = [tabCount]string{"Guide", "Logs"}

// ─── async messages ───────────────────────────────────────────────────────────

type exportedMsg struct {
	out sessiondto.ExportOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Toggle  key.Binding
	Mode    key.Binding
	Tempo   key.Binding
	Record  key.Binding
	Mark    key.Binding
	Delete  key.Binding
	Edit    key.Binding
	Next    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "start/stop")),
		Mode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "vibration/breath")),
		Tempo:   key.NewBinding(key.WithKeys("+", "-"), key.WithHelp("+/-", "bpm")),
		Record:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record session")),
		Mark:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "mark log")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d d", "delete logs")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit log")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Mode, k.Tempo, k.Record},
		{k.Mark, k.Delete, k.Edit, k.Next},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the help overlay
// and the command palette; the tabs do the rest through their ports.
type Model struct {
	settings SettingsPort
	history  HistoryPort
	notesDir string
	logger   hclog.Logger

	guideView guideview.Model
	logsView  logsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return Model{
		settings:  deps.Settings,
		history:   deps.History,
		notesDir:  deps.NotesDir,
		logger:    logger,
		guideView: guideview.New(guidePortBridge{session: deps.Session, settings: deps.Settings}),
		logsView:  logsview.New(deps.History),
		activeTab: tabGuide,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.guideView.Init(), m.logsView.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.logger.Warn("export notes", "error", msg.err)
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported " + strconv.Itoa(len(msg.out.Paths)) + " note(s) to " + msg.out.Dir
		}
		return m, nil

	case guideview.RecordedMsg:
		if msg.Err != nil {
			m.logger.Warn("record session", "error", msg.Err)
		} else {
			cmds = append(cmds, func() tea.Msg { return logsview.ReloadMsg{} })
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Everything else may belong to either tab; each ignores what is not its own.
	var guideCmd, logsCmd tea.Cmd
	m.guideView, guideCmd = m.guideView.Update(msg)
	m.logsView, logsCmd = m.logsView.Update(msg)
	cmds = append(cmds, guideCmd, logsCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if !m.subViewCapturing() {
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		}
	} else if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabGuide:
		m.guideView, cmd = m.guideView.Update(msg)
	case tabLogs:
		m.logsView, cmd = m.logsView.Update(msg)
	}
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(1, m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabLogs:
		content = m.logsView.View()
	default:
		content = m.guideView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := " " + tabLabels[i] + " "
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(label)
		} else {
			parts[i] = theme.Muted.Render(label)
		}
	}
	bar := "calmvibe  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.guideView.Running() {
		left = theme.Hot.Render("● "+strings.ToLower(m.guideView.Mode())) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	m.logger.Debug("palette command", "input", input)
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}
	needArg := func(usage string) bool {
		if arg == "" {
			m.status = "usage: " + usage
			return false
		}
		return true
	}

	var cmd tea.Cmd
	switch parts[0] {
	case "bpm":
		if !needArg("bpm <40-120>") {
			return m, nil
		}
		bpm, err := strconv.Atoi(arg)
		if err != nil {
			m.status = "bpm must be a number"
			return m, nil
		}
		m.guideView, cmd = m.guideView.SetBPM(bpm)
		return m, cmd

	case "duration":
		if !needArg("duration <60-300|inf>") {
			return m, nil
		}
		return m, m.settingsCmd(settingsinadapter.Change{Duration: arg})

	case "intensity":
		if !needArg("intensity <low|medium|strong>") {
			return m, nil
		}
		return m, m.settingsCmd(settingsinadapter.Change{Intensity: arg})

	case "breath":
		if !needArg("breath <inhale-exhale|inhale-hold-exhale>") {
			return m, nil
		}
		return m, m.settingsCmd(settingsinadapter.Change{Breath: arg})

	case "cycles":
		if !needArg("cycles <n|inf>") {
			return m, nil
		}
		return m, m.settingsCmd(settingsinadapter.Change{Cycles: arg})

	case "mode":
		if !needArg("mode <vibration|breath>") {
			return m, nil
		}
		m.activeTab = tabGuide
		m.guideView = m.guideView.SetMode(strings.ToUpper(arg))
		return m, nil

	case "start":
		m.activeTab = tabGuide
		m.guideView, cmd = m.guideView.StartSession()
		return m, cmd

	case "stop":
		m.guideView, cmd = m.guideView.StopSession()
		return m, cmd

	case "record":
		m.activeTab = tabGuide
		m.guideView, cmd = m.guideView.OpenRecord()
		return m, cmd

	case "export":
		dir := m.notesDir
		if arg != "" {
			dir = arg
		}
		if dir == "" {
			m.status = "usage: export <dir>"
			return m, nil
		}
		return m, m.exportCmd(dir)

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewCapturing reports whether the active tab is taking free text, in
// which case global key bindings must yield.
func (m Model) subViewCapturing() bool {
	switch m.activeTab {
	case tabGuide:
		return m.guideView.Capturing()
	case tabLogs:
		return m.logsView.Capturing() || m.logsView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.guideView, _ = m.guideView.Update(sz)
	m.logsView, _ = m.logsView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) settingsCmd(change settingsinadapter.Change) tea.Cmd {
	return func() tea.Msg {
		values, err := m.settings.Set(context.Background(), change)
		if err != nil {
			m.logger.Warn("settings change", "error", err)
		}
		return guideview.SettingsMsg{Values: values, Err: err}
	}
}

func (m Model) exportCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.history.Export(context.Background(), dir)
		return exportedMsg{out: out, err: err}
	}
}

// ─── port bridges ─────────────────────────────────────────────────────────────

// guidePortBridge joins the session and settings handlers into the single
// port the Guide tab uses.
type guidePortBridge struct {
	session  SessionPort
	settings SettingsPort
}

func (b guidePortBridge) Start(ctx context.Context, mode string, listener guidancein.Listener) (sessiondto.StartOutput, error) {
	return b.session.Start(ctx, mode, listener)
}

func (b guidePortBridge) Stop(ctx context.Context) error { return b.session.Stop(ctx) }

func (b guidePortBridge) SetBPM(ctx context.Context, bpm int) error {
	return b.session.SetBPM(ctx, bpm)
}

func (b guidePortBridge) Record(ctx context.Context, fields sessioninadapter.RecordFields) (sessiondto.RecordOutput, error) {
	return b.session.Record(ctx, fields)
}

func (b guidePortBridge) Settings(ctx context.Context) (settingsdto.Settings, error) {
	return b.settings.Show(ctx)
}

func (b guidePortBridge) SaveBPM(ctx context.Context, bpm int) (settingsdto.Settings, error) {
	return b.settings.Set(ctx, settingsinadapter.Change{BPM: strconv.Itoa(bpm)})
}
