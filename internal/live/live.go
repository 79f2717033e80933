// Package live serves a websocket that recomputes totals for draft
// calculations as the user edits them, without saving anything.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"

	"github.com/mmynk/nekolators/internal/metrics"
	"github.com/mmynk/nekolators/internal/rpc"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 256 << 10
)

// Mode selects the allocation model of a draft.
type Mode string

const (
	ModeFlat   Mode = "flat"
	ModeExpert Mode = "expert"
)

// Draft is a message sent by the client. The remaining fields are those of
// rpc.CalculateFlatRequest or rpc.CalculateExpertRequest, depending on Mode.
type Draft struct {
	Mode Mode `json:"mode"`

	// ID is echoed back so the client can match replies to drafts.
	ID string `json:"id,omitempty"`
}

// Reply is sent for every draft, in order.
type Reply struct {
	Mode   Mode   `json:"mode"`
	ID     string `json:"id,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Calculator computes totals for drafts.
type Calculator interface {
	CalculateFlat(context.Context, *connect.Request[rpc.CalculateFlatRequest]) (*connect.Response[rpc.CalculateFlatResponse], error)
	CalculateExpert(context.Context, *connect.Request[rpc.CalculateExpertRequest]) (*connect.Response[rpc.CalculateExpertResponse], error)
}

// Handler upgrades requests to websocket connections.
type Handler struct {
	calc     Calculator
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. allowedOrigins lists the origins allowed to
// connect; "*" allows any. Requests without an Origin header are accepted.
func NewHandler(calc Calculator, allowedOrigins []string) *Handler {
	return &Handler{
		calc: calc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Failed to upgrade connection to websocket", "error", err)
		return
	}

	metrics.LiveConnections.Inc()
	defer metrics.LiveConnections.Dec()
	slog.Debug("Live connection opened", "remote_addr", r.RemoteAddr)

	c := &client{
		calc: h.calc,
		conn: conn,
		send: make(chan Reply, 16),
		done: make(chan struct{}),
	}
	go c.writePump()
	c.readPump(r.Context())
	slog.Debug("Live connection closed", "remote_addr", r.RemoteAddr)
}

type client struct {
	calc Calculator
	conn *websocket.Conn
	send chan Reply

	// done is closed when writePump stops.
	done chan struct{}
}

// readPump handles drafts until the connection closes. It owns the send
// channel and closes it on return, which stops writePump.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Unexpected websocket close error", "error", err)
			}
			return
		}
		select {
		case c.send <- c.handle(ctx, data):
		case <-c.done:
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case reply, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(reply); err != nil {
				slog.Warn("Failed to write live reply", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle computes the reply for one draft message.
func (c *client) handle(ctx context.Context, data []byte) Reply {
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return Reply{Error: "invalid message: " + err.Error()}
	}

	reply := Reply{Mode: draft.Mode, ID: draft.ID}
	result, err := c.calculate(ctx, draft.Mode, data)
	if err != nil {
		reply.Error = errorMessage(err)
		return reply
	}
	reply.Result = result
	return reply
}

func (c *client) calculate(ctx context.Context, mode Mode, data []byte) (any, error) {
	switch mode {
	case ModeFlat:
		var req rpc.CalculateFlatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("invalid flat draft: %w", err)
		}
		resp, err := c.calc.CalculateFlat(ctx, connect.NewRequest(&req))
		if err != nil {
			return nil, err
		}
		return resp.Msg, nil
	case ModeExpert:
		var req rpc.CalculateExpertRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("invalid expert draft: %w", err)
		}
		resp, err := c.calc.CalculateExpert(ctx, connect.NewRequest(&req))
		if err != nil {
			return nil, err
		}
		return resp.Msg, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// errorMessage strips the Connect code prefix from service errors.
func errorMessage(err error) string {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr.Message()
	}
	return err.Error()
}
