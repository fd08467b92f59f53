package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hupe1980/agentchat/artifact"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/render"
	"github.com/hupe1980/agentchat/runner"
	"github.com/hupe1980/agentchat/service"
	"github.com/hupe1980/agentchat/session"
)

// SessionCookie names the cookie holding the browser session id.
const SessionCookie = "agentchat_session"

const maxMessageBytes = 64 << 10

type messageRequest struct {
	Text string `json:"text"`
}

type runView struct {
	ID     string         `json:"id"`
	Status core.RunStatus `json:"status"`
}

type turnResponse struct {
	Messages []render.TurnView `json:"messages"`
	Run      *runView          `json:"run,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type historyResponse struct {
	Turns             []render.TurnView `json:"turns"`
	AgentIDConfigured bool              `json:"agent_id_configured"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// sessionFor resolves the browser session, minting a new id when the cookie is
// missing or malformed. The returned cookie is non-nil when it must be set.
func (s *Server) sessionFor(r *http.Request) (*session.Session, *http.Cookie) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return s.sessions.GetOrCreate(c.Value), nil
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	return s.sessions.GetOrCreate(id), cookie
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, cookie := s.sessionFor(r)
	if cookie != nil {
		http.SetCookie(w, cookie)
	}
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.session(w, r)
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok", "sessions": s.sessions.Len()}
	if d, ok := s.svc.(service.Describer); ok {
		resp["provider"] = d.Info().Provider
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Touch()

	turns, err := s.html.Turns(sess.History())
	if err != nil {
		s.opts.Logger.Error("render history failed", "error", err, "session", sess.ID)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Turns: turns, AgentIDConfigured: s.opts.AgentIDConfigured})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req messageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, status := s.turn(r.Context(), sess, req.Text, nil)
	writeJSON(w, status, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.runner.Reset(sess); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.files.DeleteSession(sess.ID)
	s.opts.Logger.Info("conversation reset", "session", sess.ID)
	writeJSON(w, http.StatusOK, historyResponse{Turns: []render.TurnView{}, AgentIDConfigured: s.opts.AgentIDConfigured})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	id := mux.Vars(r)["id"]
	if !sess.HasFile(id) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	f, err := s.files.Fetch(r.Context(), s.svc, sess.ID, id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) || errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		s.opts.Logger.Error("file download failed", "error", err, "file_id", id, "session", sess.ID)
		writeError(w, http.StatusBadGateway, "file download failed")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(f.Data)
}

// turn runs one chat turn and builds the response payload shared by the JSON
// and websocket endpoints.
func (s *Server) turn(ctx context.Context, sess *session.Session, text string, onStatus runner.StatusFunc) (turnResponse, int) {
	resp := turnResponse{Messages: []render.TurnView{}}
	if strings.TrimSpace(text) == "" {
		resp.Error = core.ErrEmptyMessage.Error()
		return resp, http.StatusBadRequest
	}

	result, err := s.runner.Turn(ctx, sess, text, onStatus)
	if result != nil {
		if result.Run != nil {
			resp.Run = &runView{ID: result.Run.ID, Status: result.Run.Status}
		}
		for _, m := range result.Messages {
			view, rerr := s.html.Turn(core.TurnFromMessage(m))
			if rerr != nil {
				s.opts.Logger.Error("render message failed", "error", rerr, "message_id", m.ID)
				continue
			}
			resp.Messages = append(resp.Messages, view)
		}
	}
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.opts.Logger.Error("turn failed", "error", err, "session", sess.ID)
		} else {
			s.opts.Logger.Warn("turn rejected", "error", err, "session", sess.ID)
		}
		resp.Error = err.Error()
		return resp, status
	}
	return resp, http.StatusOK
}

// statusFor maps turn errors to HTTP status codes. Remote failures, including
// runs that ended in a non-completed status, map to 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
