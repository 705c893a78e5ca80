package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultPrompt is shown in front of the command line.
const DefaultPrompt = "agent-ants 🐜 > "

// LineSubmittedMsg is sent when the user submits a command line.
type LineSubmittedMsg struct {
	Line string
}

// InputField is the REPL command line. It remembers submitted lines and
// recalls them with the up and down keys.
type InputField struct {
	input   textinput.Model
	prompt  string
	width   int
	history []string
	// cursor indexes history while browsing; len(history) means a fresh line.
	cursor int
}

// NewInputField creates a focused InputField showing prompt.
func NewInputField(prompt string) *InputField {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	ti := textinput.New()
	ti.Placeholder = "type a command, or help"
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	return &InputField{
		input:  ti,
		prompt: prompt,
		width:  80,
	}
}

// SetWidth sets the width of the input field.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - lipgloss.Width(f.prompt) - 4
}

// Value returns the current line.
func (f *InputField) Value() string {
	return f.input.Value()
}

// History returns the submitted lines, oldest first.
func (f *InputField) History() []string {
	return append([]string(nil), f.history...)
}

// Update handles messages for the input field.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			line := strings.TrimSpace(f.input.Value())
			if line == "" {
				return f, nil
			}
			f.history = append(f.history, line)
			f.cursor = len(f.history)
			f.input.Reset()
			return f, func() tea.Msg {
				return LineSubmittedMsg{Line: line}
			}
		case tea.KeyUp:
			if f.cursor > 0 {
				f.cursor--
				f.input.SetValue(f.history[f.cursor])
				f.input.CursorEnd()
			}
			return f, nil
		case tea.KeyDown:
			if f.cursor < len(f.history)-1 {
				f.cursor++
				f.input.SetValue(f.history[f.cursor])
				f.input.CursorEnd()
			} else {
				f.cursor = len(f.history)
				f.input.Reset()
			}
			return f, nil
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders the input field.
func (f *InputField) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(f.width - 2)

	return boxStyle.Render(promptStyle.Render(f.prompt) + f.input.View())
}

// Focus sets focus on the input field.
func (f *InputField) Focus() tea.Cmd {
	return f.input.Focus()
}

// Blur removes focus from the input field.
func (f *InputField) Blur() {
	f.input.Blur()
}
