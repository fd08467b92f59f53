package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/render"
)

// Websocket frame types.
const (
	FrameMessage  = "message"
	FrameReset    = "reset"
	FrameStatus   = "status"
	FrameMessages = "messages"
	FrameError    = "error"
)

const wsWriteTimeout = 10 * time.Second

type wsRequest struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wsFrame struct {
	Type     string            `json:"type"`
	Status   core.RunStatus    `json:"status,omitempty"`
	Messages []render.TurnView `json:"messages,omitempty"`
	Run      *runView          `json:"run,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     int               `json:"code,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(f wsFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(f)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sess, cookie := s.sessionFor(r)
	header := http.Header{}
	if cookie != nil {
		header.Add("Set-Cookie", cookie.String())
	}

	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.opts.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	detach := sess.Attach()
	defer detach()

	ws := &wsConn{conn: conn}
	ctx := r.Context()
	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.opts.Logger.Debug("websocket read ended", "error", err, "session", sess.ID)
			}
			return
		}
		sess.Touch()

		var frame wsFrame
		switch req.Type {
		case FrameMessage:
			resp, code := s.turn(ctx, sess, req.Text, func(status core.RunStatus) {
				if err := ws.send(wsFrame{Type: FrameStatus, Status: status}); err != nil {
					s.opts.Logger.Debug("websocket status send failed", "error", err)
				}
			})
			frame = wsFrame{Type: FrameMessages, Messages: resp.Messages, Run: resp.Run}
			if resp.Error != "" {
				frame.Type = FrameError
				frame.Error = resp.Error
				frame.Code = code
			}
		case FrameReset:
			if err := s.runner.Reset(sess); err != nil {
				frame = wsFrame{Type: FrameError, Error: err.Error(), Code: statusFor(err)}
				break
			}
			s.files.DeleteSession(sess.ID)
			frame = wsFrame{Type: FrameReset}
		default:
			frame = wsFrame{Type: FrameError, Error: "unknown frame type " + req.Type, Code: http.StatusBadRequest}
		}

		if err := ws.send(frame); err != nil {
			s.opts.Logger.Debug("websocket write failed", "error", err, "session", sess.ID)
			return
		}
	}
}
