package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lingy-Mg/project-graph/pkg/catalog"
	"github.com/lingy-Mg/project-graph/pkg/telemetry"
)

type recordingTarget struct {
	mu       sync.Mutex
	commands []Command
	err      error
}

func (r *recordingTarget) Deliver(_ context.Context, cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.commands = append(r.commands, cmd)
	return nil
}

func (r *recordingTarget) delivered() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Command(nil), r.commands...)
}

type recordingTracker struct {
	mu      sync.Mutex
	pending map[string]string
	failed  map[string]error
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{pending: map[string]string{}, failed: map[string]error{}}
}

func (r *recordingTracker) Pending(ticket, kind, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[ticket] = kind + " " + target
}

func (r *recordingTracker) Fail(ticket string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[ticket] = err
}

func newTestBridge(target Target, tracker Tracker, ackDelay time.Duration) *Bridge {
	var n int
	var mu sync.Mutex
	return New(catalog.NewRegistry(catalog.Default()), target, tracker, Options{
		AckDelay: ackDelay,
		NewTicket: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("ticket-%d", n)
		},
	})
}

func TestListingsDoNotNeedAnInstance(t *testing.T) {
	b := newTestBridge(TargetFunc(func(context.Context, Command) error {
		return ErrTargetUnavailable
	}), nil, 0)

	assert.Len(t, b.ListResources(), 4)
	assert.Len(t, b.ListTools(), 7)
	assert.Len(t, b.ListPrompts(), 2)
}

func TestCallTool(t *testing.T) {
	target := &recordingTarget{}
	b := newTestBridge(target, nil, 50*time.Millisecond)

	args := json.RawMessage(`{"text":"hello","x":10,"y":20}`)

	start := time.Now()
	response, err := b.CallTool(context.Background(), "addNode", args)
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	assert.Equal(t, StatusSuccess, response.Status)
	assert.Equal(t, "addNode", response.Payload["tool"])
	assert.JSONEq(t, string(args), string(response.Payload["args"].(json.RawMessage)))
	assert.Equal(t, "ticket-1", response.Payload["ticket"])
	assert.Equal(t, "/mcp/results/ticket-1", response.Payload["results"])

	commands := target.delivered()
	require.Len(t, commands, 1)
	assert.Equal(t, Command{Ticket: "ticket-1", Kind: KindCallTool, Target: "addNode", Arguments: args}, commands[0])
}

func TestCallToolArgumentsArePassedThrough(t *testing.T) {
	target := &recordingTarget{}
	b := newTestBridge(target, nil, 0)

	// No schema validation: unknown tools and missing required fields go through.
	_, err := b.CallTool(context.Background(), "notInCatalog", json.RawMessage(`{"unexpected":true}`))
	require.NoError(t, err)

	_, err = b.CallTool(context.Background(), "addNode", nil)
	require.NoError(t, err)

	commands := target.delivered()
	require.Len(t, commands, 2)
	assert.Equal(t, "notInCatalog", commands[0].Target)
	assert.JSONEq(t, `{}`, string(commands[1].Arguments))
}

func TestCallToolInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args string
	}{
		{name: "empty name", tool: "", args: `{}`},
		{name: "blank name", tool: "  ", args: `{}`},
		{name: "malformed json", tool: "addNode", args: `{"text":`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			target := &recordingTarget{}
			b := newTestBridge(target, nil, 0)

			_, err := b.CallTool(context.Background(), test.tool, json.RawMessage(test.args))
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Empty(t, target.delivered())
		})
	}
}

func TestDispatchWithoutInstance(t *testing.T) {
	tracker := newRecordingTracker()
	b := newTestBridge(TargetFunc(func(context.Context, Command) error {
		return ErrTargetUnavailable
	}), tracker, time.Second)

	start := time.Now()
	_, err := b.CallTool(context.Background(), "addNode", json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrTargetUnavailable)
	assert.Less(t, time.Since(start), time.Second, "no ack delay on failure")

	_, err = b.ReadResource(context.Background(), "project://nodes")
	require.ErrorIs(t, err, ErrTargetUnavailable)

	_, err = b.GetPrompt(context.Background(), "analyze-project")
	require.ErrorIs(t, err, ErrTargetUnavailable)

	assert.Len(t, tracker.failed, 3)
}

func TestDispatchDeliveryError(t *testing.T) {
	tracker := newRecordingTracker()
	broken := errors.New("connection reset")
	b := newTestBridge(&recordingTarget{err: broken}, tracker, 0)

	_, err := b.ReadResource(context.Background(), "project://edges")
	require.Error(t, err)

	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, KindReadResource, deliveryErr.Kind)
	assert.Equal(t, "project://edges", deliveryErr.Target)
	require.ErrorIs(t, err, broken)
	assert.Equal(t, `delivering readResource "project://edges": connection reset`, err.Error())

	require.Contains(t, tracker.failed, "ticket-1")
}

func TestTicketIsPendingBeforeDelivery(t *testing.T) {
	tracker := newRecordingTracker()

	var sawPending bool
	target := TargetFunc(func(_ context.Context, cmd Command) error {
		tracker.mu.Lock()
		defer tracker.mu.Unlock()
		_, sawPending = tracker.pending[cmd.Ticket]
		return nil
	})

	b := newTestBridge(target, tracker, 0)
	_, err := b.GetPrompt(context.Background(), "analyze-project")
	require.NoError(t, err)

	assert.True(t, sawPending)
	assert.Equal(t, "getPrompt analyze-project", tracker.pending["ticket-1"])
}

func TestReadResource(t *testing.T) {
	target := &recordingTarget{}
	b := newTestBridge(target, nil, time.Second)

	start := time.Now()
	response, err := b.ReadResource(context.Background(), "project://not-listed")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "reads are not delayed")

	assert.Equal(t, StatusProcessing, response.Status)
	assert.Equal(t, "project://not-listed", response.Payload["uri"])

	commands := target.delivered()
	require.Len(t, commands, 1)
	assert.Equal(t, KindReadResource, commands[0].Kind)
	assert.Nil(t, commands[0].Arguments)
}

func TestGetPrompt(t *testing.T) {
	b := newTestBridge(&recordingTarget{}, nil, 0)

	response, err := b.GetPrompt(context.Background(), "suggest-organization")
	require.NoError(t, err)

	buf, err := json.Marshal(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"status": "processing",
		"prompt": "suggest-organization",
		"ticket": "ticket-1",
		"results": "/mcp/results/ticket-1",
		"messages": []
	}`, string(buf))
}

func TestConcurrentCallsAreNotSerialized(t *testing.T) {
	const (
		calls    = 10
		ackDelay = 100 * time.Millisecond
	)

	b := newTestBridge(&recordingTarget{}, nil, ackDelay)

	start := time.Now()
	var wg sync.WaitGroup
	for range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.CallTool(context.Background(), "addNode", json.RawMessage(`{}`))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, time.Since(start), calls*ackDelay/2)
}

func TestCallToolCancelledDuringWait(t *testing.T) {
	target := &recordingTarget{}
	b := newTestBridge(target, nil, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	response, err := b.CallTool(ctx, "deleteNode", json.RawMessage(`{"nodeId":"n1"}`))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, StatusSuccess, response.Status)
	assert.Len(t, target.delivered(), 1)
}

func TestDispatchSpans(t *testing.T) {
	spanRecorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder)))
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		telemetry.Init()
	})
	telemetry.Init()

	b := newTestBridge(&recordingTarget{}, nil, 0)
	_, err := b.CallTool(context.Background(), "connectNodes", json.RawMessage(`{"sourceId":"a","targetId":"b"}`))
	require.NoError(t, err)

	failing := newTestBridge(TargetFunc(func(context.Context, Command) error { return ErrTargetUnavailable }), nil, 0)
	_, _ = failing.ReadResource(context.Background(), "project://tags")

	spans := spanRecorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "mcp.bridge.callTool", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "mcp.bridge.readResource", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "target_unavailable", spans[1].Status().Description)
}
