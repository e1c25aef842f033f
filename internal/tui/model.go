package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/datawhisper/datawhisper/internal/session"
)

const (
	title       = "Data-Whisperer"
	subtitle    = "Enter a natural language query about the customer database."
	placeholder = "e.g., Show me all male customers from Delhi"
	submitLabel = "Submit Query"
	busyLabel   = "Loading..."
)

// Options configure the interactive view.
type Options struct {
	Input    io.Reader
	Output   io.Writer
	Endpoint string
	// AltScreen draws on the alternate screen buffer and restores the
	// terminal on exit.
	AltScreen bool
}

// resolvedMsg arrives when a submission started by this model settles. The
// controller decides whether it still applies, so the model only re-reads
// the controller state.
type resolvedMsg struct {
	generation uint64
}

type Model struct {
	ctx        context.Context
	controller *session.Controller
	endpoint   string

	input   textinput.Model
	spinner spinner.Model
	state   session.State
	width   int
}

func NewModel(ctx context.Context, controller *session.Controller, endpoint string) Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = "> "
	input.CharLimit = 1000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spinnerStyle

	return Model{
		ctx:        ctx,
		controller: controller,
		endpoint:   endpoint,
		input:      input,
		spinner:    spin,
		state:      controller.State(),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.controller.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
		if m.state.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.state = m.controller.SetInput(m.input.Value())
		return m, cmd

	case resolvedMsg:
		m.state = m.controller.State()
		if !m.state.Busy {
			m.input.Focus()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit is a no-op while a request is running, mirroring the disabled
// submit button of the web page.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state.Busy {
		return m, nil
	}
	pending, err := m.controller.Begin(m.ctx, m.input.Value())
	if err != nil {
		if errors.Is(err, session.ErrClosed) {
			return m, tea.Quit
		}
		return m, nil
	}
	m.state = m.controller.State()
	m.input.Blur()
	return m, tea.Batch(m.spinner.Tick, await(m.controller, pending))
}

func await(controller *session.Controller, pending session.Pending) tea.Cmd {
	return func() tea.Msg {
		state := controller.Await(pending)
		return resolvedMsg{generation: state.Generation}
	}
}

// State returns the view model the last frame was drawn from.
func (m Model) State() session.State {
	return m.state
}

// Run blocks until the user quits or ctx is canceled.
func Run(ctx context.Context, controller *session.Controller, opts Options) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	defer controller.Close()
	program := tea.NewProgram(NewModel(ctx, controller, opts.Endpoint), programOpts...)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run interactive view: %w", err)
	}
	return nil
}
