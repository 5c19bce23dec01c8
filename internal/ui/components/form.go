package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"calmvibe/internal/ui/theme"
)

// FormField describes one text input of a Form.
type FormField struct {
	Label       string
	Value       string
	Placeholder string
}

// FormSubmitMsg carries the field values in declaration order.
type FormSubmitMsg struct {
	ID     string
	Values []string
}

// FormCancelMsg is emitted when the user presses esc.
type FormCancelMsg struct{ ID string }

var (
	formStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Lavender).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	labelStyle       = lipgloss.NewStyle().Foreground(theme.Subtext0).Width(14)
	activeLabelStyle = labelStyle.Foreground(theme.Lavender).Bold(true)
)

// Form is a small modal of labelled text inputs. tab and shift+tab move
// focus, enter submits and esc cancels.
type Form struct {
	id      string
	title   string
	labels  []string
	inputs  []textinput.Model
	focus   int
	visible bool
	width   int
}

func NewForm(id, title string, fields []FormField) Form {
	f := Form{id: id, title: title}
	for _, field := range fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.CharLimit = 256
		ti.SetValue(field.Value)
		f.labels = append(f.labels, field.Label)
		f.inputs = append(f.inputs, ti)
	}
	return f
}

func (f Form) ID() string { return f.id }

func (f Form) Visible() bool { return f.visible }

func (f *Form) SetWidth(w int) { f.width = w }

// Open shows the form with focus on the first empty field.
func (f *Form) Open() tea.Cmd {
	f.visible = true
	f.focus = 0
	for i, in := range f.inputs {
		if in.Value() == "" {
			f.focus = i
			break
		}
	}
	return f.refocus()
}

// Values returns the trimmed field values in declaration order.
func (f Form) Values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if !f.visible || len(f.inputs) == 0 {
		return f, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			f.close()
			id := f.id
			return f, func() tea.Msg { return FormCancelMsg{ID: id} }
		case "enter":
			values := f.Values()
			f.close()
			id := f.id
			return f, func() tea.Msg { return FormSubmitMsg{ID: id, Values: values} }
		case "tab", "down":
			f.focus = (f.focus + 1) % len(f.inputs)
			return f, f.refocus()
		case "shift+tab", "up":
			f.focus = (f.focus + len(f.inputs) - 1) % len(f.inputs)
			return f, f.refocus()
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f Form) View() string {
	if !f.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(f.title) + "\n\n")
	for i, in := range f.inputs {
		label := labelStyle.Render(f.labels[i])
		if i == f.focus {
			label = activeLabelStyle.Render(f.labels[i])
		}
		sb.WriteString(label + " " + in.View() + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("tab: next field  enter: save  esc: cancel"))

	w := f.width
	if w < 30 {
		w = 64
	}
	return formStyle.Width(w - 2).Render(sb.String())
}

func (f *Form) refocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f *Form) close() {
	f.visible = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}
