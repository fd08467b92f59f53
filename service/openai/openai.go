// Package openai provides an implementation of service.AgentService using the
// beta Assistants, Threads, Runs and Messages APIs of the official OpenAI Go
// SDK. Hosted agent services that speak the same wire protocol (for example
// project endpoints of managed agent platforms) are reached by pointing the
// client at their base URL.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/service"
)

// pageSize is the number of messages requested per list call.
const pageSize = 100

// Options configure the service adapter.
type Options struct {
	// Endpoint is the base URL of the agent service. Empty keeps the SDK default.
	Endpoint string
	// APIKey is sent as bearer credential. Empty keeps the SDK default (OPENAI_API_KEY).
	APIKey string
	// APIVersion is added as api-version query parameter when set.
	APIVersion string
	// HTTPClient overrides the transport used by the SDK.
	HTTPClient *http.Client
	// MaxRetries overrides the SDK retry count when >= 0.
	MaxRetries int
	// Logger receives one debug record per remote call.
	Logger logging.Logger
}

// Service wraps the OpenAI client behind the service.AgentService interface.
type Service struct {
	client *openai.Client
	opts   Options
}

// NewService creates a service using a client configured from the options.
func NewService(optFns ...func(o *Options)) *Service {
	opts := Options{MaxRetries: -1, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var reqOpts []option.RequestOption
	if opts.Endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.Endpoint))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.APIVersion != "" {
		reqOpts = append(reqOpts, option.WithQuery("api-version", opts.APIVersion))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.MaxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}

	client := openai.NewClient(reqOpts...)
	return &Service{client: &client, opts: opts}
}

// NewServiceFromClient creates a service from an existing client.
func NewServiceFromClient(client *openai.Client, optFns ...func(o *Options)) *Service {
	opts := Options{MaxRetries: -1, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Service{client: client, opts: opts}
}

// Info implements service.Describer.
func (s *Service) Info() service.Info {
	return service.Info{Provider: "openai", Endpoint: s.opts.Endpoint}
}

// remoteCallLogger is implemented by loggers with a dedicated remote call record.
type remoteCallLogger interface {
	LogRemoteCall(op string, dur time.Duration, err error)
}

func (s *Service) track(op string, start time.Time, err error) {
	if l, ok := s.opts.Logger.(remoteCallLogger); ok {
		l.LogRemoteCall(op, time.Since(start), err)
		return
	}
	if err != nil {
		s.opts.Logger.Error("remote call failed", "operation", op, "duration", time.Since(start), "error", err)
		return
	}
	s.opts.Logger.Debug("remote call completed", "operation", op, "duration", time.Since(start))
}

// CreateAgent implements service.AgentService.
func (s *Service) CreateAgent(ctx context.Context, spec core.AgentSpec) (id string, err error) {
	defer func(start time.Time) { s.track("create_agent", start, err) }(time.Now())

	params := openai.BetaAssistantNewParams{
		Model: openai.ChatModel(spec.Model),
	}
	if spec.Name != "" {
		params.Name = openai.String(spec.Name)
	}
	if spec.Instructions != "" {
		params.Instructions = openai.String(spec.Instructions)
	}

	assistant, err := s.client.Beta.Assistants.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}
	return assistant.ID, nil
}

// CreateThread implements service.AgentService.
func (s *Service) CreateThread(ctx context.Context) (id string, err error) {
	defer func(start time.Time) { s.track("create_thread", start, err) }(time.Now())

	thread, err := s.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

// PostMessage implements service.AgentService.
func (s *Service) PostMessage(ctx context.Context, threadID, text string) (id string, err error) {
	defer func(start time.Time) { s.track("post_message", start, err) }(time.Now())

	msg, err := s.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}
	return msg.ID, nil
}

// CreateRun implements service.AgentService.
func (s *Service) CreateRun(ctx context.Context, threadID, agentID string) (run *core.Run, err error) {
	defer func(start time.Time) { s.track("create_run", start, err) }(time.Now())

	r, err := s.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: agentID,
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return toRun(r), nil
}

// GetRun implements service.AgentService.
func (s *Service) GetRun(ctx context.Context, threadID, runID string) (run *core.Run, err error) {
	defer func(start time.Time) { s.track("get_run", start, err) }(time.Now())

	r, err := s.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return toRun(r), nil
}

// ListMessages implements service.AgentService. It follows the after cursor
// until the service reports no further pages.
func (s *Service) ListMessages(ctx context.Context, threadID string, order core.SortOrder) (msgs []core.Message, err error) {
	defer func(start time.Time) { s.track("list_messages", start, err) }(time.Now())

	params := openai.BetaThreadMessageListParams{
		Limit: openai.Int(pageSize),
		Order: openai.BetaThreadMessageListParamsOrderAsc,
	}
	if order == core.OrderDescending {
		params.Order = openai.BetaThreadMessageListParamsOrderDesc
	}

	for {
		page, err := s.client.Beta.Threads.Messages.List(ctx, threadID, params)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range page.Data {
			msgs = append(msgs, toMessage(m))
		}
		if !page.HasMore || len(page.Data) == 0 {
			return msgs, nil
		}
		params.After = openai.String(page.Data[len(page.Data)-1].ID)
	}
}

// FileContent implements service.AgentService.
func (s *Service) FileContent(ctx context.Context, fileID string) (data []byte, contentType string, err error) {
	defer func(start time.Time) { s.track("file_content", start, err) }(time.Now())

	resp, err := s.client.Files.Content(ctx, fileID)
	if err != nil {
		return nil, "", fmt.Errorf("file content: %w", err)
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading file content: %w", err)
	}

	contentType = resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func toRun(r *openai.Run) *core.Run {
	run := &core.Run{
		ID:       r.ID,
		ThreadID: r.ThreadID,
		AgentID:  r.AssistantID,
		Status:   core.RunStatus(r.Status),
	}
	if r.LastError.Message != "" {
		run.LastError = r.LastError.Message
	}
	return run
}

func toMessage(m openai.Message) core.Message {
	parts := make([]core.Part, 0, len(m.Content))
	for _, c := range m.Content {
		parts = append(parts, toPart(c))
	}
	return core.Message{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Role:      core.Role(m.Role),
		Parts:     parts,
		CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
	}
}

func toPart(c openai.MessageContentUnion) core.Part {
	switch c.Type {
	case "text":
		return core.TextPart{Text: c.Text.Value}
	case "image_file":
		return core.ImageFilePart{FileID: c.ImageFile.FileID}
	case "image_url":
		return core.ImageURLPart{URL: c.ImageURL.URL}
	default:
		data := map[string]any{}
		if raw := c.RawJSON(); raw != "" {
			_ = json.Unmarshal([]byte(raw), &data)
		}
		return core.RawPart{Type: c.Type, Data: data}
	}
}
