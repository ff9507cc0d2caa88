package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/catalog"
	"github.com/lingy-Mg/project-graph/pkg/instance"
	"github.com/lingy-Mg/project-graph/pkg/results"
	"github.com/lingy-Mg/project-graph/pkg/server"
)

type fakeInstance struct {
	mu       sync.Mutex
	commands []bridge.Command
}

func (f *fakeInstance) Deliver(_ context.Context, cmd bridge.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeInstance) last() bridge.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commands[len(f.commands)-1]
}

func setup(t *testing.T, attached bool) (*Client, *fakeInstance, *results.Store) {
	t.Helper()

	store, err := results.New(results.Config{TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	holder := instance.NewHolder()
	fake := &fakeInstance{}
	if attached {
		_, err := holder.Attach(fake, instance.Info{Name: "fake", Transport: "test"})
		require.NoError(t, err)
	}

	registry := catalog.NewRegistry(catalog.Default())
	srv := server.New(server.Deps{
		Bridge:   bridge.New(registry, holder, store, bridge.Options{}),
		Registry: registry,
		Holder:   holder,
		Results:  store,
	}, server.Options{})

	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(httpServer.Close)

	return New(httpServer.URL + "/"), fake, store
}

func TestLists(t *testing.T) {
	c, _, _ := setup(t, false)
	ctx := t.Context()

	resources, err := c.ListResources(ctx)
	require.NoError(t, err)
	assert.Len(t, resources, 4)

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 7)

	prompts, err := c.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Len(t, prompts, 2)
}

func TestReadResourceEscapesURI(t *testing.T) {
	c, fake, _ := setup(t, true)

	response, err := c.ReadResource(t.Context(), "project://nodes")
	require.NoError(t, err)
	assert.Equal(t, "processing", response["status"])
	assert.Equal(t, "project://nodes", fake.last().Target)
}

func TestCallTool(t *testing.T) {
	c, fake, _ := setup(t, true)

	response, err := c.CallTool(t.Context(), "deleteNode", map[string]any{"nodeId": "n1"})
	require.NoError(t, err)
	assert.Equal(t, "success", response["status"])
	assert.JSONEq(t, `{"nodeId":"n1"}`, string(fake.last().Arguments))
}

func TestDetachedIsStatusError(t *testing.T) {
	c, _, _ := setup(t, false)

	_, err := c.GetPrompt(t.Context(), "analyze-project")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Contains(t, statusErr.Message, "target unavailable")
}

func TestResultLifecycle(t *testing.T) {
	c, _, store := setup(t, true)
	ctx := t.Context()

	response, err := c.CallTool(ctx, "addNode", map[string]any{"text": "a", "x": 1, "y": 2})
	require.NoError(t, err)
	ticket := response["ticket"].(string)

	entry, pending, err := c.Result(ctx, ticket)
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Equal(t, results.StatePending, entry.State)

	_, err = store.Publish(ticket, results.Outcome{Result: json.RawMessage(`{"node":{"id":"n7"}}`)})
	require.NoError(t, err)

	entry, pending, err = c.Result(ctx, ticket)
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, results.StateDone, entry.State)

	value, err := c.ResultPath(ctx, ticket, "$.node.id")
	require.NoError(t, err)
	assert.Equal(t, "n7", value)
}

func TestUnknownTicket(t *testing.T) {
	c, _, _ := setup(t, false)

	_, _, err := c.Result(t.Context(), "nope")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestUnreachable(t *testing.T) {
	_, err := New("http://127.0.0.1:1").ListTools(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contacting bridge")
}
