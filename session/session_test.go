package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agentchat/core"
)

func TestSession_MarkSeenOnlyGrows(t *testing.T) {
	s := New("s1")

	assert.Equal(t, 3, s.MarkSeen("m1", "m2", "m3"))
	assert.Equal(t, 3, s.SeenCount())

	assert.Equal(t, 1, s.MarkSeen("m2", "m4"))
	assert.Equal(t, 4, s.SeenCount())
	assert.True(t, s.Seen("m1"))
	assert.False(t, s.Seen("m5"))

	s.Reset()
	assert.Equal(t, 4, s.SeenCount(), "reset must not shrink the seen set")
}

func TestSession_HistoryCopyAndReset(t *testing.T) {
	s := New("s1")
	s.SetAgentID("asst_1")
	s.SetThreadID("thread_1")
	s.AppendTurn(core.NewUserTurn("hi"))

	h := s.History()
	assert.Len(t, h, 1)
	h[0] = core.NewUserTurn("changed")
	assert.Equal(t, "hi", core.TextOf(s.History()[0].Parts))

	s.Reset()
	assert.Empty(t, s.History())
	assert.Empty(t, s.ThreadID())
	assert.Equal(t, "asst_1", s.AgentID())
}

func TestSession_TurnGuard(t *testing.T) {
	s := New("s1")
	assert.True(t, s.TryBeginTurn())
	assert.False(t, s.TryBeginTurn())
	s.EndTurn()
	assert.True(t, s.TryBeginTurn())
}

func TestSession_Files(t *testing.T) {
	s := New("s1")
	s.AddFiles("file_1")
	assert.True(t, s.HasFile("file_1"))
	assert.False(t, s.HasFile("file_2"))
}
