// Package tui implements the terminal chat front-end on top of bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/render"
	"github.com/hupe1980/agentchat/runner"
	"github.com/hupe1980/agentchat/session"
)

// Options configure the terminal front-end.
type Options struct {
	// Context bounds every turn started from the UI.
	Context context.Context
	// Title is shown in the header.
	Title string
	// AgentIDConfigured switches the footer caption.
	AgentIDConfigured bool
}

type statusMsg struct{ Status core.RunStatus }

type turnDoneMsg struct {
	Result *runner.TurnResult
	Err    error
}

type resetDoneMsg struct{ Err error }

// chrome is the number of lines used by everything but the transcript.
const chrome = 6

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx      context.Context
	runner   *runner.Runner
	sess     *session.Session
	renderer *render.TerminalRenderer
	opts     Options

	transcript viewport.Model
	input      textinput.Model
	spinner    spinner.Model

	width   int
	height  int
	busy    bool
	status  core.RunStatus
	notice  string
	err     error
	shown   []core.Turn
	events  chan tea.Msg
	quitted bool
}

// New creates the chat model for one session.
func New(r *runner.Runner, sess *session.Session, optFns ...func(o *Options)) Model {
	opts := Options{
		Context: context.Background(),
		Title:   "🤖 Agent Chat + Mermaid",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Type your message…"
	input.CharLimit = 8000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	transcript := viewport.New(80, 20)
	transcript.MouseWheelEnabled = true

	m := Model{
		ctx:        opts.Context,
		runner:     r,
		sess:       sess,
		renderer:   render.NewTerminalRenderer(),
		opts:       opts,
		transcript: transcript,
		input:      input,
		spinner:    sp,
		width:      80,
		height:     20 + chrome,
		shown:      sess.History(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitted = true
			return m, tea.Quit
		case "ctrl+r":
			if m.busy {
				m.notice = "Wait for the current reply before resetting."
				return m, nil
			}
			m.busy = true
			m.notice = ""
			m.err = nil
			return m, m.resetCmd()
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			m.status = ""
			m.notice = ""
			m.err = nil
			m.shown = append(m.sess.History(), core.NewUserTurn(text))
			m.refresh()
			return m, m.turnCmd(text)
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd

	case statusMsg:
		m.status = msg.Status
		return m, waitEvent(m.events)

	case turnDoneMsg:
		m.busy = false
		m.status = ""
		m.events = nil
		m.err = msg.Err
		m.shown = m.sess.History()
		m.refresh()
		return m, nil

	case resetDoneMsg:
		m.busy = false
		m.err = msg.Err
		if msg.Err == nil {
			m.notice = "Conversation reset."
		}
		m.shown = m.sess.History()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitted {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.opts.Title),
		m.transcript.View(),
		m.statusLine(),
		m.input.View(),
		footerStyle.Render(m.footer()),
	)
}

func (m Model) statusLine() string {
	switch {
	case m.busy && m.status != "":
		return statusStyle.Render(fmt.Sprintf("%s Thinking… (%s)", m.spinner.View(), m.status))
	case m.busy:
		return statusStyle.Render(m.spinner.View() + " Thinking…")
	case m.err != nil:
		return errorStyle.Render(errorText(m.err))
	default:
		return statusStyle.Render(m.notice)
	}
}

func (m Model) footer() string {
	caption := "Tip: To reuse an existing Agent across sessions, set the AGENT_ID env var. Otherwise this app creates an Agent for the session."
	if m.opts.AgentIDConfigured {
		caption = "Reusing the agent configured via AGENT_ID."
	}
	return "enter send · ctrl+r reset · esc quit\n" + caption
}

func (m *Model) resize() {
	w := m.width
	if w < 20 {
		w = 20
	}
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.transcript.Width = w
	m.transcript.Height = h
	m.input.Width = w - 4
	m.renderer.SetWidth(w)
}

func (m *Model) refresh() {
	m.transcript.SetContent(m.renderer.Turns(m.shown))
	m.transcript.GotoBottom()
}

// turnCmd runs the turn in the background. Status updates and the final
// result arrive through the events channel.
func (m *Model) turnCmd(text string) tea.Cmd {
	events := make(chan tea.Msg, 16)
	m.events = events

	ctx, r, sess := m.ctx, m.runner, m.sess
	run := func() tea.Msg {
		defer close(events)
		res, err := r.Turn(ctx, sess, text, func(status core.RunStatus) {
			select {
			case events <- statusMsg{Status: status}:
			default:
			}
		})
		events <- turnDoneMsg{Result: res, Err: err}
		return nil
	}
	return tea.Batch(run, waitEvent(events))
}

func (m Model) resetCmd() tea.Cmd {
	r, sess := m.runner, m.sess
	return func() tea.Msg {
		return resetDoneMsg{Err: r.Reset(sess)}
	}
}

func waitEvent(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func errorText(err error) string {
	var runErr *core.RunError
	switch {
	case errors.As(err, &runErr):
		return fmt.Sprintf("Run ended with status: %s", runErr.Run.Status)
	case errors.Is(err, core.ErrRunTimeout):
		return "The agent did not answer in time."
	default:
		return "Error: " + err.Error()
	}
}
