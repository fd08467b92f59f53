package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hupe1980/agentchat/artifact"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/render"
	"github.com/hupe1980/agentchat/runner"
	"github.com/hupe1980/agentchat/service"
	"github.com/hupe1980/agentchat/session"
)

//go:embed static/index.html
var staticFS embed.FS

// Options configure a Server.
type Options struct {
	// Addr is the listen address used by ListenAndServe.
	Addr string
	// SessionIdleTimeout drops sessions that saw no activity for this long.
	SessionIdleTimeout time.Duration
	// PruneInterval is how often idle sessions are swept.
	PruneInterval time.Duration
	// AgentIDConfigured reports whether a pre-existing agent is reused.
	AgentIDConfigured bool
	// DisableFileProxy renders image files as notes instead of proxying them.
	DisableFileProxy bool
	// SecureCookie marks the session cookie Secure (HTTPS deployments).
	SecureCookie bool
	// Logger receives access and error logs.
	Logger logging.Logger
}

// Server is the browser front-end.
type Server struct {
	runner   *runner.Runner
	svc      service.AgentService
	sessions *session.InMemoryStore
	files    *artifact.InMemoryStore
	html     *render.HTMLRenderer
	upgrader websocket.Upgrader
	router   *mux.Router
	opts     Options
}

// New wires a Server around a runner and the service used for file downloads.
func New(r *runner.Runner, svc service.AgentService, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:               ":8080",
		SessionIdleTimeout: 2 * time.Hour,
		PruneInterval:      5 * time.Minute,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{
		runner:   r,
		svc:      svc,
		sessions: session.NewInMemoryStore(),
		files:    artifact.NewInMemoryStore(),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		opts:     opts,
	}
	s.html = render.NewHTMLRenderer(func(o *render.HTMLOptions) {
		if !opts.DisableFileProxy {
			o.FileURL = func(id string) string { return "/files/" + url.PathEscape(id) }
		}
	})
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, recoverMiddleware(s.opts.Logger), loggingMiddleware(s.opts.Logger))

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/files/{id}", s.handleFile).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.handleMessage).Methods(http.MethodPost)
	api.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	return router
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions exposes the session store.
func (s *Server) Sessions() *session.InMemoryStore { return s.sessions }

// Prune drops idle sessions together with their cached files.
func (s *Server) Prune() int {
	ids := s.sessions.Prune(s.opts.SessionIdleTimeout)
	for _, id := range ids {
		s.files.DeleteSession(id)
	}
	if len(ids) > 0 {
		s.opts.Logger.Info("pruned idle sessions", "count", len(ids), "remaining", s.sessions.Len())
	}
	return len(ids)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("web server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) pruneLoop(ctx context.Context) {
	if s.opts.PruneInterval <= 0 || s.opts.SessionIdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune()
		}
	}
}
