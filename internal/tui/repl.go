package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
	introStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Reply is the result of one command line.
type Reply struct {
	Output string
	Err    error
	// Quit ends the session after the output is shown.
	Quit bool
}

// Executor runs one command line.
type Executor func(ctx context.Context, line string) Reply

// replyMsg carries a Reply back into the update loop.
type replyMsg struct {
	line  string
	reply Reply
}

// REPL is the interactive shell: a transcript above a command line. One
// command runs at a time; lines submitted while it runs are refused.
type REPL struct {
	ctx  context.Context
	exec Executor

	input    *InputField
	spinner  spinner.Model
	viewport viewport.Model

	transcript []string
	running    string
	quitting   bool
	width      int
	height     int
}

// NewREPL creates a REPL that runs lines with exec. intro is shown first.
func NewREPL(ctx context.Context, exec Executor, intro string) *REPL {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = promptStyle

	r := &REPL{
		ctx:      ctx,
		exec:     exec,
		input:    NewInputField(DefaultPrompt),
		spinner:  sp,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
	if intro != "" {
		r.appendLines(introStyle.Render(intro))
	}
	return r
}

// Init implements tea.Model.
func (r *REPL) Init() tea.Cmd {
	return r.input.Focus()
}

// Update implements tea.Model.
func (r *REPL) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			r.quitting = true
			return r, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			r.viewport, cmd = r.viewport.Update(msg)
			return r, cmd
		}

	case tea.WindowSizeMsg:
		r.width, r.height = msg.Width, msg.Height
		r.resize()
		return r, nil

	case LineSubmittedMsg:
		r.appendLines(promptStyle.Render(DefaultPrompt) + msg.Line)
		if r.running != "" {
			r.appendLines(dimStyle.Render("still running: " + r.running))
			return r, nil
		}
		r.running = msg.Line
		return r, tea.Batch(r.spinner.Tick, r.execute(msg.Line))

	case replyMsg:
		r.running = ""
		if msg.reply.Output != "" {
			r.appendLines(strings.TrimRight(msg.reply.Output, "\n"))
		}
		if msg.reply.Err != nil {
			r.appendLines(errorStyle.Render("[ERROR] " + msg.reply.Err.Error()))
		}
		if msg.reply.Quit {
			r.quitting = true
			return r, tea.Quit
		}
		return r, nil

	case spinner.TickMsg:
		if r.running == "" {
			return r, nil
		}
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		return r, cmd
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

// execute runs line off the update loop.
func (r *REPL) execute(line string) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{line: line, reply: r.exec(r.ctx, line)}
	}
}

func (r *REPL) appendLines(s string) {
	r.transcript = append(r.transcript, s)
	r.viewport.SetContent(strings.Join(r.transcript, "\n"))
	r.viewport.GotoBottom()
}

func (r *REPL) resize() {
	r.input.SetWidth(r.width)
	// Input box takes three rows, the status line one.
	h := r.height - 4
	if h < 1 {
		h = 1
	}
	r.viewport.Width = r.width
	r.viewport.Height = h
	r.viewport.GotoBottom()
}

// Transcript returns everything shown so far, one entry per append.
func (r *REPL) Transcript() []string {
	return append([]string(nil), r.transcript...)
}

// Running returns the line being executed, or "".
func (r *REPL) Running() string { return r.running }

// View implements tea.Model.
func (r *REPL) View() string {
	if r.quitting {
		return strings.Join(r.transcript, "\n") + "\n"
	}
	status := dimStyle.Render("ctrl+c to exit, pgup/pgdn to scroll")
	if r.running != "" {
		status = r.spinner.View() + " " + dimStyle.Render("running "+r.running)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		r.viewport.View(),
		status,
		r.input.View(),
	)
}

// RunREPL runs the REPL until the user exits or ctx is cancelled.
func RunREPL(ctx context.Context, exec Executor, intro string) error {
	p := tea.NewProgram(NewREPL(ctx, exec, intro), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
