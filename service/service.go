// Package service defines the boundary to the hosted agent service. The
// front-ends only consume it: agents, threads, messages and runs are owned
// by the remote side and treated as opaque records.
package service

import (
	"context"

	"github.com/hupe1980/agentchat/core"
)

// AgentService is the set of remote operations a chat turn needs.
type AgentService interface {
	// CreateAgent creates an agent and returns its id.
	CreateAgent(ctx context.Context, spec core.AgentSpec) (string, error)
	// CreateThread creates an empty conversation thread and returns its id.
	CreateThread(ctx context.Context) (string, error)
	// PostMessage appends a user message to the thread and returns its id.
	PostMessage(ctx context.Context, threadID, text string) (string, error)
	// CreateRun starts an agent run against the thread.
	CreateRun(ctx context.Context, threadID, agentID string) (*core.Run, error)
	// GetRun returns the current state of a run.
	GetRun(ctx context.Context, threadID, runID string) (*core.Run, error)
	// ListMessages returns every message of the thread in the given order.
	ListMessages(ctx context.Context, threadID string, order core.SortOrder) ([]core.Message, error)
	// FileContent downloads a file (typically an image) and its content type.
	FileContent(ctx context.Context, fileID string) ([]byte, string, error)
}

// Info describes an AgentService implementation.
type Info struct {
	Provider string `json:"provider"` // "openai", "mock", ...
	Endpoint string `json:"endpoint,omitempty"`
}

// Describer is implemented by services that can report Info.
type Describer interface {
	Info() Info
}
