package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/canrun/internal/storage"
)

// Form field order.
const (
	fieldName = iota
	fieldAge
	fieldEmail
	fieldCity
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Age", "Email", "City"}

// RegisterForm collects a new player profile.
type RegisterForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

// NewRegisterForm creates a form with email pre-filled.
func NewRegisterForm(email string) *RegisterForm {
	f := &RegisterForm{}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 64
		in.Width = 32
		f.inputs[i] = in
	}
	f.inputs[fieldAge].CharLimit = 3
	f.inputs[fieldEmail].SetValue(email)
	f.inputs[fieldName].Focus()
	return f
}

// Profile parses the fields into a profile record. Only the age is
// checked here; storage validates the rest.
func (f *RegisterForm) Profile() (storage.ProfileRecord, error) {
	age, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldAge].Value()))
	if err != nil {
		return storage.ProfileRecord{}, fmt.Errorf("%w: age must be a number", storage.ErrInvalidProfile)
	}
	return storage.ProfileRecord{
		Name:  strings.TrimSpace(f.inputs[fieldName].Value()),
		Age:   age,
		Email: strings.TrimSpace(f.inputs[fieldEmail].Value()),
		City:  strings.TrimSpace(f.inputs[fieldCity].Value()),
	}, nil
}

// SetError shows a validation message under the form.
func (f *RegisterForm) SetError(err error) {
	if err == nil {
		f.err = ""
		return
	}
	f.err = err.Error()
}

// Update handles a key. It returns true when the player submits.
func (f *RegisterForm) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return false, f.move(1)
	case "shift+tab", "up":
		return false, f.move(-1)
	case "enter":
		if f.focus < fieldCount-1 {
			return false, f.move(1)
		}
		return true, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, cmd
}

func (f *RegisterForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

// View renders the form centered in width.
func (f *RegisterForm) View(width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(8)
	active := label.Foreground(lipgloss.Color("229"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	var b strings.Builder
	b.WriteString(title.Render("REGISTER TO RUN"))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		l := label
		if i == f.focus {
			l = active
		}
		b.WriteString(l.Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if f.err != "" {
		b.WriteString(errStyle.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString(label.Width(0).Render("tab: next field  enter: submit  esc: quit"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(1, 2).
		Render(b.String())
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
