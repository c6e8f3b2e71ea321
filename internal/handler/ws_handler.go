package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ensayolab/ensayo-backend/internal/middleware"
	"github.com/ensayolab/ensayo-backend/internal/service"
	"github.com/ensayolab/ensayo-backend/internal/session"
	ws "github.com/ensayolab/ensayo-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live session state over WebSocket.
type WSHandler struct {
	manager  *service.SessionManager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *service.SessionManager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes. gorilla/websocket allows at most one concurrent
// writer and this connection is written from both the read loop and the
// state-push goroutine.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteTyped(c.conn, v)
}

// AttemptStream godoc
// WS /ws/v1/attempts/:attempt_id/stream?token=
// Upgrades to WebSocket and streams a session snapshot once per second.
// Intents (answer, navigate, finish) arrive on the same connection.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	sess, err := h.manager.Get(attemptID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for this attempt"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := &wsConn{conn: raw}
	defer raw.Close()

	wsLog := h.log.With().
		Str("attempt_id", attemptID.String()).
		Str("user_id", claims.UserID.String()).
		Logger()

	wsLog.Info().Msg("Learner connected")

	done := make(chan struct{})
	defer close(done)

	// Push a snapshot every second so the frontend countdown tracks the
	// server clock. Stops once the session goes terminal.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if sess.Finished() {
					h.pushResult(conn, sess, "")
					return
				}
				if err := conn.write(ws.StateResponse{Event: ws.EventState, State: sess.View()}); err != nil {
					return
				}
			}
		}
	}()

	// Initial snapshot so the client does not wait a full second.
	if err := conn.write(ws.StateResponse{Event: ws.EventState, State: sess.View()}); err != nil {
		return
	}

	for {
		var msg ws.Request
		if err := ws.ReadJSON(raw, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, sess, &msg)
		case ws.ActionNavigate:
			h.handleNavigate(conn, sess, &msg)
		case ws.ActionFinish:
			h.handleFinish(c, conn, wsLog, attemptID, claims.UserID)
			return
		case ws.ActionPing:
			_ = conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			_ = conn.write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action"})
		}
	}
}

func (h *WSHandler) handleAnswer(conn *wsConn, sess *session.Session, msg *ws.Request) {
	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		_ = conn.write(ws.ErrorResponse{Event: ws.EventError, Error: "invalid question ID"})
		return
	}

	if err := sess.SelectAnswer(questionID, msg.Answer); err != nil {
		if errors.Is(err, session.ErrInvalidQuestion) {
			_ = conn.write(ws.ErrorResponse{Event: ws.EventError, Error: "question does not belong to this exam"})
			return
		}
		_ = conn.write(ws.ErrorResponse{Event: ws.EventError, Error: "answer rejected"})
		return
	}

	_ = conn.write(ws.StateResponse{Event: ws.EventState, State: sess.View()})
}

func (h *WSHandler) handleNavigate(conn *wsConn, sess *session.Session, msg *ws.Request) {
	if !applyNavigate(sess, msg) {
		_ = conn.write(ws.ErrorResponse{Event: ws.EventError, Error: "navigate requires index or direction"})
		return
	}

	_ = conn.write(ws.StateResponse{Event: ws.EventState, State: sess.View()})
}

// applyNavigate moves the cursor per the request, accepting the same intents
// as the REST navigate endpoint. Index wins when both are present.
func applyNavigate(sess *session.Session, msg *ws.Request) bool {
	switch {
	case msg.Index != nil:
		sess.Seek(*msg.Index)
	case msg.Direction == "next":
		sess.Next()
	case msg.Direction == "prev":
		sess.Prev()
	default:
		return false
	}
	return true
}

func (h *WSHandler) handleFinish(c *gin.Context, conn *wsConn, wsLog zerolog.Logger, attemptID, userID uuid.UUID) {
	res, err := h.manager.Finish(c.Request.Context(), attemptID, userID)
	if err != nil && res == nil {
		_ = conn.write(ws.ErrorResponse{Event: ws.EventError, Error: "finish failed"})
		return
	}

	warning := ""
	if err != nil {
		wsLog.Warn().Err(err).Msg("Completion write failed, result delivered unsaved")
		warning = "result may not have been saved"
	}

	_ = conn.write(ws.ResultResponse{Event: ws.EventResult, Result: res, Warning: warning})
	wsLog.Info().Msg("Session finished over WebSocket")
}

func (h *WSHandler) pushResult(conn *wsConn, sess *session.Session, warning string) {
	if res := sess.Result(); res != nil {
		_ = conn.write(ws.ResultResponse{Event: ws.EventResult, Result: res, Warning: warning})
	}
}
