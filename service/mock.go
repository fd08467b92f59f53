package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentchat/core"
)

// ErrNotFound is returned by MockService for unknown threads, runs or files.
var ErrNotFound = errors.New("not found")

// mockDiagramReply is returned when the prompt asks for a diagram and no
// canned response matches.
const mockDiagramReply = "Here is a diagram:\n\n```mermaid\ngraph TD\n  A[User] --> B[Agent]\n  B --> C[Reply]\n```\n\nLet me know if you need changes."

type mockFile struct {
	data        []byte
	contentType string
}

type mockRun struct {
	run      core.Run
	statuses []core.RunStatus
	reply    []core.Part
}

// MockService is a deterministic in-process AgentService used by tests and
// offline demos. Runs walk through a configurable status sequence, one step
// per GetRun call, and append the assistant reply when they complete.
type MockService struct {
	mu        sync.Mutex
	statuses  []core.RunStatus
	responses map[string][]core.Part
	failures  map[string]error
	agents    map[string]core.AgentSpec
	threads   map[string][]core.Message
	runs      map[string]*mockRun
	files     map[string]mockFile
	runCount  int
	getCount  int
}

// NewMockService constructs a MockService whose runs go queued, in_progress,
// completed.
func NewMockService() *MockService {
	return &MockService{
		statuses:  []core.RunStatus{core.RunStatusQueued, core.RunStatusInProgress, core.RunStatusCompleted},
		responses: make(map[string][]core.Part),
		failures:  make(map[string]error),
		agents:    make(map[string]core.AgentSpec),
		threads:   make(map[string][]core.Message),
		runs:      make(map[string]*mockRun),
		files:     make(map[string]mockFile),
	}
}

// SetStatusSequence replaces the statuses runs walk through. The first entry
// is returned by CreateRun; the last one is terminal.
func (m *MockService) SetStatusSequence(statuses ...core.RunStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append([]core.RunStatus(nil), statuses...)
}

// AddResponse registers a canned text reply for an exact prompt.
func (m *MockService) AddResponse(prompt, response string) {
	m.AddPartsResponse(prompt, core.TextPart{Text: response})
}

// AddPartsResponse registers a canned multi-part reply for an exact prompt.
func (m *MockService) AddPartsResponse(prompt string, parts ...core.Part) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = parts
}

// AddFile makes a file downloadable through FileContent.
func (m *MockService) AddFile(fileID string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[fileID] = mockFile{data: append([]byte(nil), data...), contentType: contentType}
}

// FailOn makes the named operation ("create_agent", "create_thread",
// "post_message", "create_run", "get_run", "list_messages", "file_content")
// return err. A nil err clears the failure.
func (m *MockService) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// AgentCount returns how many agents were created.
func (m *MockService) AgentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents)
}

// ThreadCount returns how many threads were created.
func (m *MockService) ThreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads)
}

// RunCount returns how many runs were created.
func (m *MockService) RunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runCount
}

// PollCount returns how many times GetRun was called.
func (m *MockService) PollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCount
}

// Info implements Describer.
func (m *MockService) Info() Info { return Info{Provider: "mock"} }

func (m *MockService) failure(op string) error {
	if err, ok := m.failures[op]; ok {
		return err
	}
	return nil
}

// CreateAgent implements AgentService.
func (m *MockService) CreateAgent(_ context.Context, spec core.AgentSpec) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("create_agent"); err != nil {
		return "", err
	}
	id := "asst_" + shortID()
	m.agents[id] = spec
	return id, nil
}

// CreateThread implements AgentService.
func (m *MockService) CreateThread(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("create_thread"); err != nil {
		return "", err
	}
	id := "thread_" + shortID()
	m.threads[id] = []core.Message{}
	return id, nil
}

// PostMessage implements AgentService.
func (m *MockService) PostMessage(_ context.Context, threadID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("post_message"); err != nil {
		return "", err
	}
	msgs, ok := m.threads[threadID]
	if !ok {
		return "", fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	msg := core.Message{
		ID:        "msg_" + shortID(),
		ThreadID:  threadID,
		Role:      core.RoleUser,
		Parts:     []core.Part{core.TextPart{Text: text}},
		CreatedAt: time.Now(),
	}
	m.threads[threadID] = append(msgs, msg)
	return msg.ID, nil
}

// CreateRun implements AgentService.
func (m *MockService) CreateRun(_ context.Context, threadID, agentID string) (*core.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("create_run"); err != nil {
		return nil, err
	}
	msgs, ok := m.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	m.runCount++

	var prompt string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			prompt = core.TextOf(msgs[i].Parts)
			break
		}
	}

	statuses := append([]core.RunStatus(nil), m.statuses...)
	if len(statuses) == 0 {
		statuses = []core.RunStatus{core.RunStatusCompleted}
	}
	mr := &mockRun{
		run: core.Run{
			ID:       "run_" + shortID(),
			ThreadID: threadID,
			AgentID:  agentID,
			Status:   statuses[0],
		},
		statuses: statuses[1:],
		reply:    m.replyFor(prompt),
	}
	m.runs[mr.run.ID] = mr
	m.settle(mr)

	run := mr.run
	return &run, nil
}

// GetRun implements AgentService.
func (m *MockService) GetRun(_ context.Context, threadID, runID string) (*core.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCount++
	if err := m.failure("get_run"); err != nil {
		return nil, err
	}
	mr, ok := m.runs[runID]
	if !ok || mr.run.ThreadID != threadID {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if len(mr.statuses) > 0 {
		mr.run.Status = mr.statuses[0]
		mr.statuses = mr.statuses[1:]
		m.settle(mr)
	}
	run := mr.run
	return &run, nil
}

// settle applies the side effects of a terminal status; caller holds the lock.
func (m *MockService) settle(mr *mockRun) {
	switch mr.run.Status {
	case core.RunStatusCompleted:
		if mr.reply == nil {
			return
		}
		m.threads[mr.run.ThreadID] = append(m.threads[mr.run.ThreadID], core.Message{
			ID:        "msg_" + shortID(),
			ThreadID:  mr.run.ThreadID,
			Role:      core.RoleAssistant,
			Parts:     mr.reply,
			CreatedAt: time.Now(),
		})
		mr.reply = nil
	case core.RunStatusFailed:
		mr.run.LastError = "mock run failed"
	}
}

// ListMessages implements AgentService.
func (m *MockService) ListMessages(_ context.Context, threadID string, order core.SortOrder) ([]core.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("list_messages"); err != nil {
		return nil, err
	}
	msgs, ok := m.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	if order == core.OrderDescending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// FileContent implements AgentService.
func (m *MockService) FileContent(_ context.Context, fileID string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("file_content"); err != nil {
		return nil, "", err
	}
	f, ok := m.files[fileID]
	if !ok {
		return nil, "", fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}
	return append([]byte(nil), f.data...), f.contentType, nil
}

// replyFor resolves the reply parts for a prompt; caller holds the lock.
func (m *MockService) replyFor(prompt string) []core.Part {
	if parts, ok := m.responses[prompt]; ok {
		return append([]core.Part(nil), parts...)
	}
	if strings.Contains(strings.ToLower(prompt), "diagram") {
		return []core.Part{core.TextPart{Text: mockDiagramReply}}
	}
	return []core.Part{core.TextPart{Text: fmt.Sprintf("Mock response to: %s", prompt)}}
}

func shortID() string {
	return strings.ReplaceAll(core.NewID(), "-", "")[:24]
}
