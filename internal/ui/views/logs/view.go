package logs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	sessioninadapter "calmvibe/internal/modules/session/adapter/in"
	sessiondto "calmvibe/internal/modules/session/dto"
	"calmvibe/internal/ui/components"
	"calmvibe/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Page(ctx context.Context, limit int, cursor *sessiondto.Cursor) (sessiondto.PageOutput, error)
	Show(ctx context.Context, id string) (sessiondto.NoteOutput, error)
	Fields(ctx context.Context, id string) (sessioninadapter.RecordFields, error)
	Edit(ctx context.Context, id string, fields sessioninadapter.RecordFields) (sessiondto.RecordOutput, error)
	Delete(ctx context.Context, ids []string) (int, error)
}

const (
	pageSize   = 20
	editFormID = "edit"
)

// ─── messages ────────────────────────────────────────────────────────────────

// ReloadMsg asks the tab to fetch the first page again.
type ReloadMsg struct{}

type pageLoadedMsg struct {
	page   sessiondto.PageOutput
	append bool
	err    error
}

type noteLoadedMsg struct {
	note sessiondto.NoteOutput
	err  error
}

type fieldsLoadedMsg struct {
	id     string
	fields sessioninadapter.RecordFields
	err    error
}

type editedMsg struct {
	record sessiondto.RecordOutput
	err    error
}

type deletedMsg struct {
	count int
	err   error
}

// ─── list item ───────────────────────────────────────────────────────────────

type recordItem struct {
	record sessiondto.RecordOutput
	marked bool
}

func (i recordItem) Title() string {
	mark := "  "
	if i.marked {
		mark = "✓ "
	}
	return mark + i.record.RecordedAt.Local().Format("2006-01-02 15:04") + "  " + strings.ToLower(i.record.GuideType)
}

func (i recordItem) Description() string {
	parts := []string{"#" + i.record.ID}
	if i.record.BPM != nil {
		parts = append(parts, "bpm "+strconv.Itoa(*i.record.BPM))
	}
	if i.record.BreathConfig != "" {
		parts = append(parts, i.record.BreathConfig)
	}
	if i.record.PreHR != nil || i.record.PostHR != nil {
		parts = append(parts, "hr "+intText(i.record.PreHR)+"→"+intText(i.record.PostHR))
	}
	if i.record.Improvement != nil {
		parts = append(parts, strings.Repeat("★", *i.record.Improvement))
	}
	return strings.Join(parts, "  ")
}

func (i recordItem) FilterValue() string { return i.record.GuideType + " " + i.record.Notes }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port      Port
	list      list.Model
	preview   viewport.Model
	renderer  *glamour.TermRenderer
	previewID string
	next      *sessiondto.Cursor
	hasNext   bool
	confirm   bool
	editID    string
	form      components.Form
	status    string
	width     int
	height    int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Logs"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(0, 1)

	r, _ := components.NewMarkdownRenderer(0)
	return Model{port: port, list: l, preview: vp, renderer: r}
}

func (m Model) Init() tea.Cmd {
	return m.loadPageCmd(nil, false)
}

// Filtering reports whether the list filter owns keyboard input.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Capturing reports whether the edit form owns keyboard input.
func (m Model) Capturing() bool { return m.form.Visible() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if m.previewID != "" {
			cmds = append(cmds, m.loadNoteCmd(m.previewID))
		}

	case ReloadMsg:
		m.confirm = false
		return m, m.loadPageCmd(nil, false)

	case pageLoadedMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		items := m.list.Items()
		if !msg.append {
			items = nil
			m.list.ResetSelected()
		}
		for _, r := range msg.page.Records {
			items = append(items, recordItem{record: r})
		}
		m.next = msg.page.NextCursor
		m.hasNext = msg.page.HasNext
		cmds = append(cmds, m.list.SetItems(items))
		if len(items) == 0 {
			m.previewID = ""
			m.preview.SetContent(theme.Muted.Render("No sessions recorded yet."))
		}

	case noteLoadedMsg:
		if msg.err != nil {
			m.preview.SetContent(theme.Error.Render("Error: " + msg.err.Error()))
			return m, nil
		}
		if msg.note.ID != m.previewID {
			return m, nil
		}
		m.preview.SetContent(components.RenderMarkdown(m.renderer, msg.note.Body))
		m.preview.GotoTop()
		return m, nil

	case fieldsLoadedMsg:
		if msg.err != nil {
			m.status = "edit: " + msg.err.Error()
			return m, nil
		}
		m.editID = msg.id
		m.form = editForm(msg.id, msg.fields)
		m.form.SetWidth(min(m.width-4, 70))
		cmd := m.form.Open()
		return m, cmd

	case components.FormSubmitMsg:
		if msg.ID != editFormID {
			return m, nil
		}
		return m, m.editCmd(m.editID, editFields(msg.Values))

	case editedMsg:
		if msg.err != nil {
			m.status = "edit failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "updated #" + msg.record.ID
		m.replace(msg.record)
		return m, m.loadNoteCmd(msg.record.ID)

	case deletedMsg:
		if msg.err != nil {
			m.status = "delete failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("deleted %d record(s)", msg.count)
		return m, m.loadPageCmd(nil, false)

	case tea.KeyMsg:
		if m.form.Visible() {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		}
		if !m.Filtering() {
			next, cmd, handled := m.handleKey(msg)
			m = next
			if handled {
				return m, cmd
			}
		}
	}

	var listCmd tea.Cmd
	m.list, listCmd = m.list.Update(msg)
	cmds = append(cmds, listCmd)

	if id := m.selectedID(); id != "" && id != m.previewID {
		m.previewID = id
		cmds = append(cmds, m.loadNoteCmd(id))
	}

	var vCmd tea.Cmd
	m.preview, vCmd = m.preview.Update(msg)
	cmds = append(cmds, vCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	key := msg.String()
	if key != "d" {
		m.confirm = false
	}
	switch key {
	case " ", "x":
		m.toggleMark()
		return m, nil, true
	case "d":
		ids := m.targets()
		if len(ids) == 0 {
			return m, nil, true
		}
		if !m.confirm {
			m.confirm = true
			m.status = fmt.Sprintf("press d again to delete %d record(s)", len(ids))
			return m, nil, true
		}
		m.confirm = false
		return m, m.deleteCmd(ids), true
	case "e":
		if id := m.selectedID(); id != "" {
			return m, m.loadFieldsCmd(id), true
		}
		return m, nil, true
	case "n":
		if !m.hasNext {
			m.status = "no more records"
			return m, nil, true
		}
		return m, m.loadPageCmd(m.next, true), true
	case "R":
		return m, m.loadPageCmd(nil, false), true
	}
	return m, nil, false
}

func (m Model) View() string {
	if m.form.Visible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.View())
	}
	left := m.list.View()
	right := m.preview.View()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	hints := "space: mark  d: delete  e: edit  n: next page  R: reload  /: filter"
	if m.hasNext {
		hints = theme.Hot.Render("more ") + hints
	}
	footer := theme.Muted.Render(hints)
	if m.status != "" {
		footer = theme.Muted.Render(m.status) + "  " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := max(30, m.width*2/5)
	h := max(3, m.height-1)
	m.list.SetSize(listW, h)
	m.preview.Width = max(10, m.width-listW)
	m.preview.Height = h
	if r, err := components.NewMarkdownRenderer(max(20, m.preview.Width-4)); err == nil {
		m.renderer = r
	}
}

func (m Model) selectedID() string {
	item, ok := m.list.SelectedItem().(recordItem)
	if !ok {
		return ""
	}
	return item.record.ID
}

func (m *Model) toggleMark() {
	idx := m.list.Index()
	item, ok := m.list.SelectedItem().(recordItem)
	if !ok {
		return
	}
	item.marked = !item.marked
	m.list.SetItem(idx, item)
}

// targets returns marked ids, or the selected id when nothing is marked.
func (m Model) targets() []string {
	var ids []string
	for _, it := range m.list.Items() {
		if r, ok := it.(recordItem); ok && r.marked {
			ids = append(ids, r.record.ID)
		}
	}
	if len(ids) == 0 {
		if id := m.selectedID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *Model) replace(record sessiondto.RecordOutput) {
	for i, it := range m.list.Items() {
		if r, ok := it.(recordItem); ok && r.record.ID == record.ID {
			r.record = record
			m.list.SetItem(i, r)
			return
		}
	}
}

func (m Model) loadPageCmd(cursor *sessiondto.Cursor, appendPage bool) tea.Cmd {
	return func() tea.Msg {
		page, err := m.port.Page(context.Background(), pageSize, cursor)
		return pageLoadedMsg{page: page, append: appendPage, err: err}
	}
}

func (m Model) loadNoteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		note, err := m.port.Show(context.Background(), id)
		return noteLoadedMsg{note: note, err: err}
	}
}

func (m Model) loadFieldsCmd(id string) tea.Cmd {
	return func() tea.Msg {
		fields, err := m.port.Fields(context.Background(), id)
		return fieldsLoadedMsg{id: id, fields: fields, err: err}
	}
}

func (m Model) editCmd(id string, fields sessioninadapter.RecordFields) tea.Cmd {
	return func() tea.Msg {
		record, err := m.port.Edit(context.Background(), id, fields)
		return editedMsg{record: record, err: err}
	}
}

func (m Model) deleteCmd(ids []string) tea.Cmd {
	return func() tea.Msg {
		n, err := m.port.Delete(context.Background(), ids)
		return deletedMsg{count: n, err: err}
	}
}

func editForm(id string, fields sessioninadapter.RecordFields) components.Form {
	return components.NewForm(editFormID, "Edit record #"+id, []components.FormField{
		{Label: "Guide", Value: fields.GuideType, Placeholder: "VIBRATION|BREATH"},
		{Label: "BPM", Value: fields.BPM, Placeholder: "40-120"},
		{Label: "Breath", Value: fields.Breath},
		{Label: "Pre HR", Value: fields.PreHR, Placeholder: "30-220"},
		{Label: "Post HR", Value: fields.PostHR, Placeholder: "30-220"},
		{Label: "Improvement", Value: fields.Improvement, Placeholder: "1-5"},
	})
}

func editFields(values []string) sessioninadapter.RecordFields {
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
	}
}

func intText(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
