// Package agentchat provides a high-level façade wiring configuration,
// logging, the agent service client, sessions and the turn runner. Most
// applications interact with this package by:
//  1. Loading a config.Config (environment plus optional YAML file)
//  2. Creating an App via New()
//  3. Either serving a front-end (NewWebServer, NewTUI) or calling Chat
//     directly for a synchronous request-response exchange
//
// Sessions and downloaded files live in process memory only.
package agentchat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/agentchat/config"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/runner"
	"github.com/hupe1980/agentchat/service"
	"github.com/hupe1980/agentchat/service/openai"
	"github.com/hupe1980/agentchat/session"
	"github.com/hupe1980/agentchat/tui"
	"github.com/hupe1980/agentchat/web"
)

// Options configures the App instance.
type Options struct {
	// Service overrides the agent service built from the config.
	Service service.AgentService
	// SessionStore holds sessions used by Chat (defaults to in-memory).
	SessionStore *session.InMemoryStore
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// App aggregates the configured service and runner.
type App struct {
	cfg      *config.Config
	opts     Options
	runner   *runner.Runner
	sessions *session.InMemoryStore
}

// New validates cfg and builds the service and runner. Any unset dependency
// is initialized from the config.
func New(cfg *config.Config, optFns ...func(o *Options)) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.Service == nil {
		opts.Service = NewService(cfg, component(opts.Logger, "service"))
	}

	r := runner.New(opts.Service, func(o *runner.Options) {
		o.AgentSpec = cfg.AgentSpec()
		o.ExistingAgentID = cfg.AgentID
		if cfg.PollInterval > 0 {
			o.PollInterval = cfg.PollInterval
		}
		if cfg.PollMaxInterval > 0 {
			o.PollMaxInterval = cfg.PollMaxInterval
		}
		if cfg.RunTimeout > 0 {
			o.RunTimeout = cfg.RunTimeout
		}
		if cfg.MaxConcurrentTurns > 0 {
			o.MaxConcurrentTurns = int64(cfg.MaxConcurrentTurns)
		}
		o.Logger = component(opts.Logger, "runner")
	})

	return &App{cfg: cfg, opts: opts, runner: r, sessions: opts.SessionStore}, nil
}

// NewService builds the agent service selected by the config: the in-process
// mock or the hosted service client.
func NewService(cfg *config.Config, logger logging.Logger) service.AgentService {
	if cfg.UseMock {
		return service.NewMockService()
	}
	return openai.NewService(func(o *openai.Options) {
		o.Endpoint = cfg.ProjectEndpoint
		o.APIKey = cfg.APIKey
		o.APIVersion = cfg.APIVersion
		o.Logger = logger
	})
}

// NewLogger builds the structured logger described by the config.
func NewLogger(cfg *config.Config, out io.Writer, component string) (*logging.ChatLogger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(cfg.LogFormat)
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "text" {
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    out,
		Component: component,
	}), nil
}

// component scopes a ChatLogger to a component; other loggers pass through.
func component(l logging.Logger, name string) logging.Logger {
	if cl, ok := l.(*logging.ChatLogger); ok {
		return cl.WithComponent(name)
	}
	return l
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Runner returns the turn runner.
func (a *App) Runner() *runner.Runner { return a.runner }

// Service returns the agent service.
func (a *App) Service() service.AgentService { return a.opts.Service }

// NewWebServer creates the browser front-end.
func (a *App) NewWebServer(optFns ...func(o *web.Options)) *web.Server {
	return web.New(a.runner, a.opts.Service, append([]func(o *web.Options){func(o *web.Options) {
		o.Addr = a.cfg.Addr
		o.AgentIDConfigured = a.cfg.AgentID != ""
		o.Logger = component(a.opts.Logger, "web")
	}}, optFns...)...)
}

// NewTUI creates the terminal front-end bound to a fresh session.
func (a *App) NewTUI(ctx context.Context) tui.Model {
	sess := a.sessions.GetOrCreate(core.NewID())
	return tui.New(a.runner, sess, func(o *tui.Options) {
		o.Context = ctx
		o.AgentIDConfigured = a.cfg.AgentID != ""
	})
}

// Chat is a synchronous helper running one turn in the named session
// (created on first use) and returning the new assistant messages.
func (a *App) Chat(ctx context.Context, sessionID, text string) ([]core.Message, error) {
	sess := a.sessions.GetOrCreate(sessionID)
	res, err := a.runner.Turn(ctx, sess, text, nil)
	if res == nil {
		return nil, err
	}
	return res.Messages, err
}

// History returns the turns recorded for the named session.
func (a *App) History(sessionID string) []core.Turn {
	sess, ok := a.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	return sess.History()
}

// Reset starts a new conversation for the named session.
func (a *App) Reset(sessionID string) error {
	sess, ok := a.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	return a.runner.Reset(sess)
}
