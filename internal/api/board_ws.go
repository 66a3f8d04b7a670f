package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/domain-lists/internal/board"
	"github.com/terra-clan/domain-lists/internal/lists"
	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/resolver"
)

const boardWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BoardMessage is sent by the client
type BoardMessage struct {
	Type      string                  `json:"type"`
	Selection *models.FilterSelection `json:"selection,omitempty"`
	Page      int                     `json:"page,omitempty"`
}

// BoardEvent is pushed to the client
type BoardEvent struct {
	Type    string       `json:"type"`
	Session string       `json:"session,omitempty"`
	Seq     uint64       `json:"seq,omitempty"`
	View    *models.View `json:"view,omitempty"`
	Error   *apiError    `json:"error,omitempty"`
}

// boardConn serialises writes to one websocket. Views come from the
// controller; errors may come from any action goroutine.
type boardConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *boardConn) send(ev BoardEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal board event", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(boardWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send board event", "error", err)
		return err
	}
	return nil
}

func (c *boardConn) sendError(code, message string) {
	_ = c.send(BoardEvent{
		Type:  "error",
		Error: &apiError{Code: code, Message: message},
	})
}

// Present implements board.Presenter
func (c *boardConn) Present(ctx context.Context, seq uint64, v models.View) error {
	return c.send(BoardEvent{Type: "view", Seq: seq, View: &v})
}

func (s *Server) handleBoardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	bc := &boardConn{conn: conn}
	ctrl := board.NewController(s.pipeline, bc)
	sess := board.NewSession(ctrl, conn.Close)
	s.hub.Add(sess)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	defer func() {
		cancel()
		wg.Wait()
		s.hub.Remove(sess.ID)
		_ = sess.Close()
		slog.Info("board websocket disconnected", "session_id", sess.ID)
	}()

	slog.Info("board websocket connected", "session_id", sess.ID)

	if err := bc.send(BoardEvent{Type: "connected", Session: sess.ID}); err != nil {
		return
	}

	// Actions run concurrently so a newer selection is never queued behind a
	// slow load. The controller decides which result is painted.
	dispatch := func(action string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn(ctx)
			if ctx.Err() != nil {
				return
			}
			s.finishBoardAction(bc, sess.ID, action, err)
		}()
	}

	// Initial load with the default selection
	def := s.defaultSelection()
	dispatch("apply", func(ctx context.Context) error { return ctrl.Apply(ctx, def) })

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
		sess.Touch()

		var msg BoardMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("invalid message format", "error", err)
			bc.sendError("invalid_message", "message must be JSON")
			continue
		}

		switch msg.Type {
		case "apply":
			var sel models.FilterSelection
			if msg.Selection != nil {
				sel = *msg.Selection
			}
			sel, err := s.validateSelection(sel)
			if err != nil {
				bc.sendError("validation_error", err.Error())
				continue
			}
			dispatch(msg.Type, func(ctx context.Context) error { return ctrl.Apply(ctx, sel) })
		case "page":
			if msg.Page < 1 {
				bc.sendError("validation_error", "page must be a positive integer")
				continue
			}
			page := msg.Page
			dispatch(msg.Type, func(ctx context.Context) error { return ctrl.GoTo(ctx, page) })
		case "retry":
			dispatch(msg.Type, ctrl.Retry)
		default:
			bc.sendError("invalid_message", "unknown message type: "+msg.Type)
		}
	}
}

// finishBoardAction reports what the client would otherwise never see. Error
// views of failed loads have already been presented.
func (s *Server) finishBoardAction(bc *boardConn, sessionID, action string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, board.ErrStale):
		slog.Debug("discarded stale board result", "session_id", sessionID, "action", action)
	case errors.Is(err, lists.ErrResourceUnavailable):
	case errors.Is(err, resolver.ErrUnknownSelection):
		bc.sendError("unknown_selection", err.Error())
	case errors.Is(err, board.ErrGated):
		bc.sendError("gated", "page requires user action")
	case errors.Is(err, board.ErrNoSelection):
		bc.sendError("no_selection", "apply a selection first")
	default:
		slog.Warn("board action failed", "session_id", sessionID, "action", action, "error", err)
		bc.sendError("internal_error", "action failed")
	}
}
