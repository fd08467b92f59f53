package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
)

// Interface compliance (compile-time assertions)
var (
	_ AgentService = (*MockService)(nil)
	_ Describer    = (*MockService)(nil)
)

func TestMockService_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewMockService()
	svc.AddResponse("hello", "hi there")

	agentID, err := svc.CreateAgent(ctx, core.AgentSpec{Model: "m"}.WithDefaults())
	require.NoError(t, err)
	threadID, err := svc.CreateThread(ctx)
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, threadID, "hello")
	require.NoError(t, err)

	run, err := svc.CreateRun(ctx, threadID, agentID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusQueued, run.Status)

	run, err = svc.GetRun(ctx, threadID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusInProgress, run.Status)

	msgs, err := svc.ListMessages(ctx, threadID, core.OrderAscending)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "reply must not appear before completion")

	run, err = svc.GetRun(ctx, threadID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)

	msgs, err = svc.ListMessages(ctx, threadID, core.OrderAscending)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hi there", core.TextOf(msgs[1].Parts))

	desc, err := svc.ListMessages(ctx, threadID, core.OrderDescending)
	require.NoError(t, err)
	assert.Equal(t, msgs[1].ID, desc[0].ID)

	assert.Equal(t, 1, svc.RunCount())
	assert.Equal(t, 2, svc.PollCount())
}

func TestMockService_DiagramAndDefaultReplies(t *testing.T) {
	svc := NewMockService()
	svc.SetStatusSequence(core.RunStatusCompleted)
	assert.Contains(t, core.TextOf(svc.replyFor("draw a diagram")), "```mermaid")
	assert.Equal(t, "Mock response to: x", core.TextOf(svc.replyFor("x")))
}

func TestMockService_FailedRun(t *testing.T) {
	ctx := context.Background()
	svc := NewMockService()
	svc.SetStatusSequence(core.RunStatusQueued, core.RunStatusFailed)

	threadID, err := svc.CreateThread(ctx)
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, threadID, "hello")
	require.NoError(t, err)
	run, err := svc.CreateRun(ctx, threadID, "asst_1")
	require.NoError(t, err)

	run, err = svc.GetRun(ctx, threadID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.LastError)

	msgs, err := svc.ListMessages(ctx, threadID, core.OrderAscending)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMockService_FailuresAndFiles(t *testing.T) {
	ctx := context.Background()
	svc := NewMockService()

	boom := errors.New("boom")
	svc.FailOn("create_thread", boom)
	_, err := svc.CreateThread(ctx)
	assert.ErrorIs(t, err, boom)

	svc.FailOn("create_thread", nil)
	_, err = svc.CreateThread(ctx)
	assert.NoError(t, err)

	_, err = svc.PostMessage(ctx, "thread_missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	svc.AddFile("file_1", []byte("png"), "image/png")
	data, ct, err := svc.FileContent(ctx, "file_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, "image/png", ct)

	_, _, err = svc.FileContent(ctx, "file_2")
	assert.ErrorIs(t, err, ErrNotFound)
}
