package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/runner"
	"github.com/hupe1980/agentchat/service"
	"github.com/hupe1980/agentchat/session"
)

var _ tea.Model = Model{}

func newTestModel(t *testing.T, svc *service.MockService, optFns ...func(o *Options)) (Model, *session.Session) {
	t.Helper()
	r := runner.New(svc, func(o *runner.Options) {
		o.PollInterval = time.Millisecond
		o.PollMaxInterval = 5 * time.Millisecond
		o.RunTimeout = 2 * time.Second
	})
	sess := session.New("tui")
	m := New(r, sess, optFns...)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), sess
}

// drive executes cmd and feeds resulting messages back into the model until
// stop reports true for a processed message.
func drive(t *testing.T, m Model, cmd tea.Cmd, stop func(tea.Msg) bool) (Model, []tea.Msg) {
	t.Helper()
	msgs := make(chan tea.Msg, 64)
	exec := func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() { msgs <- c() }()
	}
	exec(cmd)

	var seen []tea.Msg
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-msgs:
			switch v := msg.(type) {
			case nil:
				continue
			case tea.BatchMsg:
				for _, c := range v {
					exec(c)
				}
				continue
			case spinner.TickMsg:
				continue
			}
			seen = append(seen, msg)
			next, c := m.Update(msg)
			m = next.(Model)
			if stop(msg) {
				return m, seen
			}
			exec(c)
		case <-timeout:
			t.Fatal("timed out waiting for model")
			return m, seen
		}
	}
}

func isTurnDone(msg tea.Msg) bool {
	_, ok := msg.(turnDoneMsg)
	return ok
}

func typeAndSend(m Model, text string) (Model, tea.Cmd) {
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestModel_Turn(t *testing.T) {
	svc := service.NewMockService()
	svc.AddResponse("draw", "Sure\n```mermaid\ngraph TD; A-->B\n```")
	m, sess := newTestModel(t, svc)

	m, cmd := typeAndSend(m, "draw")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Contains(t, m.View(), "Thinking…")
	assert.Empty(t, m.input.Value())

	m, seen := drive(t, m, cmd, isTurnDone)

	var statuses []core.RunStatus
	for _, msg := range seen {
		if s, ok := msg.(statusMsg); ok {
			statuses = append(statuses, s.Status)
		}
	}
	assert.Equal(t, []core.RunStatus{core.RunStatusQueued, core.RunStatusInProgress, core.RunStatusCompleted}, statuses)

	assert.False(t, m.busy)
	assert.NoError(t, m.err)
	assert.Len(t, sess.History(), 2)

	view := m.View()
	assert.Contains(t, view, "graph TD; A-->B")
	assert.Contains(t, view, "Sure")
	assert.NotContains(t, view, "Thinking…")
}

func TestModel_TurnDoesNotStartSecondSpinnerLoop(t *testing.T) {
	m, _ := newTestModel(t, service.NewMockService())

	_, cmd := typeAndSend(m, "hi")
	require.NotNil(t, cmd)

	msgs := make(chan tea.Msg, 64)
	var exec func(c tea.Cmd)
	exec = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, child := range batch {
					exec(child)
				}
				return
			}
			msgs <- msg
		}()
	}
	exec(cmd)

	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case msg := <-msgs:
			_, isTick := msg.(spinner.TickMsg)
			assert.False(t, isTick, "the spinner loop started by Init keeps running")
		case <-deadline:
			return
		}
	}
}

func TestModel_IgnoresEmptyInputAndBusyTurns(t *testing.T) {
	svc := service.NewMockService()
	m, _ := newTestModel(t, svc)

	m, cmd := typeAndSend(m, "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.busy)

	m, cmd = typeAndSend(m, "first")
	require.NotNil(t, cmd)
	_, second := typeAndSend(m, "second")
	assert.Nil(t, second)

	drive(t, m, cmd, isTurnDone)
	assert.Equal(t, 1, svc.RunCount())
}

func TestModel_RunFailureShowsStatus(t *testing.T) {
	svc := service.NewMockService()
	svc.SetStatusSequence(core.RunStatusQueued, core.RunStatusFailed)
	m, _ := newTestModel(t, svc)

	m, cmd := typeAndSend(m, "hello")
	m, _ = drive(t, m, cmd, isTurnDone)

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "Run ended with status: failed")
}

func TestModel_Reset(t *testing.T) {
	svc := service.NewMockService()
	m, sess := newTestModel(t, svc)

	m, cmd := typeAndSend(m, "hello")
	m, _ = drive(t, m, cmd, isTurnDone)
	require.Len(t, sess.History(), 2)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	require.NotNil(t, cmd)
	m, _ = drive(t, m, cmd, func(msg tea.Msg) bool {
		_, ok := msg.(resetDoneMsg)
		return ok
	})

	assert.Empty(t, sess.History())
	assert.Empty(t, sess.ThreadID())
	assert.Contains(t, m.View(), "Conversation reset.")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, service.NewMockService())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_Footer(t *testing.T) {
	m, _ := newTestModel(t, service.NewMockService())
	assert.Contains(t, m.View(), "AGENT_ID env var")

	m, _ = newTestModel(t, service.NewMockService(), func(o *Options) { o.AgentIDConfigured = true })
	assert.True(t, strings.Contains(m.View(), "Reusing the agent configured via AGENT_ID"))
}
