package instance

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
)

const DefaultWriteTimeout = 5 * time.Second

// WebSocketHandler attaches the application front-end for the lifetime of
// its WebSocket connection.
type WebSocketHandler struct {
	holder       *Holder
	publisher    Publisher
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	readLimit    int64
}

func NewWebSocketHandler(holder *Holder, publisher Publisher, writeTimeout time.Duration) *WebSocketHandler {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	return &WebSocketHandler{
		holder:    holder,
		publisher: publisher,
		upgrader: websocket.Upgrader{
			// The front-end is served from its own origin (tauri://, localhost dev servers).
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
		readLimit:    maxMessageSize,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, attached := h.holder.Attached(); attached {
		http.Error(w, ErrAlreadyAttached.Error(), http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied.
		log("! WebSocket upgrade failed:", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.readLimit)

	target := &wsTarget{conn: conn, writeTimeout: h.writeTimeout}
	attachment, err := h.holder.Attach(target, Info{Name: r.RemoteAddr, Transport: "websocket"})
	if err != nil {
		// Lost a race with another instance.
		closeMessage := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(h.writeTimeout))
		return
	}
	defer attachment.Detach()

	logf("> Application instance attached over WebSocket from %s", r.RemoteAddr)
	defer logf("> Application instance from %s detached", r.RemoteAddr)

	ctx := r.Context()
	for {
		messageType, buf, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				debugf("! WebSocket read: %s", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		name, err := handleInbound(ctx, buf, h.publisher)
		if err != nil {
			logf("! Invalid message from the application instance: %s", err)
			continue
		}
		if name != "" {
			attachment.Rename(name)
		}
	}
}

type wsTarget struct {
	// gorilla connections support one concurrent writer.
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (t *wsTarget) Deliver(ctx context.Context, cmd bridge.Command) error {
	deadline := time.Now().Add(t.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteJSON(commandMessage(cmd))
}
