package instance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/results"
)

func newResultStore(t *testing.T) *results.Store {
	t.Helper()

	store, err := results.New(results.Config{TTL: time.Minute, MaxEntries: 100})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func dial(t *testing.T, server *httptest.Server) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	return websocket.DefaultDialer.Dial(url, nil)
}

func waitAttached(t *testing.T, holder *Holder, want bool) {
	t.Helper()

	require.Eventually(t, func() bool {
		_, attached := holder.Attached()
		return attached == want
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebSocketAttachment(t *testing.T) {
	holder := NewHolder()
	store := newResultStore(t)
	server := httptest.NewServer(NewWebSocketHandler(holder, store, time.Second))
	defer server.Close()

	conn, _, err := dial(t, server)
	require.NoError(t, err)
	waitAttached(t, holder, true)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeHello, Name: "project-graph", Version: "1.0.0"}))
	require.Eventually(t, func() bool {
		info, _ := holder.Attached()
		return info.Name == "project-graph"
	}, 5*time.Second, 10*time.Millisecond)

	store.Pending("t-1", string(bridge.KindCallTool), "addNode")
	require.NoError(t, holder.Deliver(context.Background(), bridge.Command{
		Ticket:    "t-1",
		Kind:      bridge.KindCallTool,
		Target:    "addNode",
		Arguments: json.RawMessage(`{"text":"hi","x":1,"y":2}`),
	}))

	var received Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, TypeCommand, received.Type)
	assert.Equal(t, "t-1", received.Ticket)
	assert.Equal(t, bridge.KindCallTool, received.Kind)
	assert.Equal(t, "addNode", received.Target)
	assert.JSONEq(t, `{"text":"hi","x":1,"y":2}`, string(received.Arguments))

	require.NoError(t, conn.WriteJSON(Message{Type: TypeResult, Ticket: "t-1", Result: json.RawMessage(`{"nodeId":"n1"}`)}))
	require.Eventually(t, func() bool {
		entry, _ := store.Get("t-1")
		return entry.State == results.StateDone
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	waitAttached(t, holder, false)

	err = holder.Deliver(context.Background(), bridge.Command{Ticket: "t-2"})
	require.ErrorIs(t, err, bridge.ErrTargetUnavailable)
}

func TestWebSocketSecondInstanceRejected(t *testing.T) {
	holder := NewHolder()
	server := httptest.NewServer(NewWebSocketHandler(holder, newResultStore(t), time.Second))
	defer server.Close()

	first, _, err := dial(t, server)
	require.NoError(t, err)
	defer first.Close()
	waitAttached(t, holder, true)

	_, response, err := dial(t, server)
	require.Error(t, err)
	require.NotNil(t, response)
	assert.Equal(t, http.StatusConflict, response.StatusCode)
}

func TestWebSocketIgnoresGarbage(t *testing.T) {
	holder := NewHolder()
	server := httptest.NewServer(NewWebSocketHandler(holder, newResultStore(t), time.Second))
	defer server.Close()

	conn, _, err := dial(t, server)
	require.NoError(t, err)
	defer conn.Close()
	waitAttached(t, holder, true)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Message{Type: TypeResult, Ticket: "unknown"}))
	require.NoError(t, conn.WriteJSON(Message{Type: "telemetry"}))

	// Still attached and still receiving commands.
	require.NoError(t, holder.Deliver(context.Background(), bridge.Command{Ticket: "t-3", Kind: bridge.KindGetPrompt, Target: "analyze-project"}))

	var received Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, "t-3", received.Ticket)
}

func TestWebSocketOversizedFrameDetaches(t *testing.T) {
	holder := NewHolder()
	handler := NewWebSocketHandler(holder, newResultStore(t), time.Second)
	handler.readLimit = 1024
	server := httptest.NewServer(handler)
	defer server.Close()

	conn, _, err := dial(t, server)
	require.NoError(t, err)
	defer conn.Close()
	waitAttached(t, holder, true)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("a", 2048))))
	waitAttached(t, holder, false)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "unexpected error: %v", err)
}
