package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lingy-Mg/project-graph/pkg/catalog"
	"github.com/lingy-Mg/project-graph/pkg/telemetry"
)

const (
	DefaultAckDelay    = 100 * time.Millisecond
	DefaultResultsPath = "/mcp/results/"
)

type Options struct {
	// AckDelay is how long CallTool waits after delivery before acknowledging.
	AckDelay time.Duration
	// ResultsPath is advertised in responses as where outcomes can be polled.
	ResultsPath string
	// NewTicket generates command tickets. Defaults to random UUIDs.
	NewTicket func() string
}

// Bridge turns catalog operations into commands for the attached instance.
type Bridge struct {
	registry    *catalog.Registry
	target      Target
	tracker     Tracker
	ackDelay    time.Duration
	resultsPath string
	newTicket   func() string
}

func New(registry *catalog.Registry, target Target, tracker Tracker, options Options) *Bridge {
	if tracker == nil {
		tracker = noopTracker{}
	}
	if options.ResultsPath == "" {
		options.ResultsPath = DefaultResultsPath
	}
	if options.NewTicket == nil {
		options.NewTicket = uuid.NewString
	}

	return &Bridge{
		registry:    registry,
		target:      target,
		tracker:     tracker,
		ackDelay:    options.AckDelay,
		resultsPath: options.ResultsPath,
		newTicket:   options.NewTicket,
	}
}

func (b *Bridge) ListResources() []catalog.Resource {
	return b.registry.ListResources()
}

func (b *Bridge) ListTools() []catalog.Tool {
	return b.registry.ListTools()
}

func (b *Bridge) ListPrompts() []catalog.Prompt {
	return b.registry.ListPrompts()
}

// ReadResource asks the instance to produce a resource. The uri is passed
// through as is, even when the catalog does not list it.
func (b *Bridge) ReadResource(ctx context.Context, uri string) (Response, error) {
	cmd, err := b.dispatch(ctx, KindReadResource, uri, nil)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Status: StatusProcessing,
		Payload: map[string]any{
			"uri":     uri,
			"ticket":  cmd.Ticket,
			"results": b.resultsPath + cmd.Ticket,
			"message": "Resource request delivered to the application, poll the results endpoint for the content",
		},
	}, nil
}

// CallTool delivers a tool invocation, then gives the instance AckDelay to pick
// it up before reporting success. The arguments are not checked against the
// tool's schema.
func (b *Bridge) CallTool(ctx context.Context, name string, args json.RawMessage) (Response, error) {
	if strings.TrimSpace(name) == "" {
		return Response{}, fmt.Errorf("%w: tool name is required", ErrInvalidArgument)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return Response{}, fmt.Errorf("%w: tool arguments are not valid JSON", ErrInvalidArgument)
	}

	cmd, err := b.dispatch(ctx, KindCallTool, name, args)
	if err != nil {
		return Response{}, err
	}

	wait(ctx, b.ackDelay)

	return Response{
		Status: StatusSuccess,
		Payload: map[string]any{
			"tool":    name,
			"args":    args,
			"ticket":  cmd.Ticket,
			"results": b.resultsPath + cmd.Ticket,
			"message": "Tool call delivered to the application, poll the results endpoint for the outcome",
		},
	}, nil
}

// GetPrompt asks the instance to render a prompt. The synchronous answer
// carries no messages.
func (b *Bridge) GetPrompt(ctx context.Context, name string) (Response, error) {
	cmd, err := b.dispatch(ctx, KindGetPrompt, name, nil)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Status: StatusProcessing,
		Payload: map[string]any{
			"prompt":   name,
			"ticket":   cmd.Ticket,
			"results":  b.resultsPath + cmd.Ticket,
			"messages": []any{},
		},
	}, nil
}

func (b *Bridge) dispatch(ctx context.Context, kind Kind, target string, args json.RawMessage) (Command, error) {
	cmd := Command{
		Ticket:    b.newTicket(),
		Kind:      kind,
		Target:    target,
		Arguments: args,
	}

	ctx, span := telemetry.StartDispatchSpan(ctx, string(kind), target, attribute.String("mcp.bridge.ticket", cmd.Ticket))
	defer span.End()

	telemetry.RecordDispatch(ctx, string(kind), target)

	// Registered first: a fast instance may publish before Deliver returns.
	b.tracker.Pending(cmd.Ticket, string(kind), target)

	start := time.Now()
	err := b.target.Deliver(ctx, cmd)
	telemetry.RecordDispatchDuration(ctx, string(kind), target, float64(time.Since(start))/float64(time.Millisecond))

	if err != nil {
		reason := "delivery_failed"
		if errors.Is(err, ErrTargetUnavailable) {
			reason = "target_unavailable"
		} else {
			var deliveryErr *DeliveryError
			if !errors.As(err, &deliveryErr) {
				err = &DeliveryError{Kind: kind, Target: target, Err: err}
			}
		}

		b.tracker.Fail(cmd.Ticket, err)
		telemetry.RecordDispatchError(ctx, span, string(kind), target, reason, err)
		span.SetStatus(codes.Error, reason)
		return Command{}, err
	}

	span.SetStatus(codes.Ok, "")
	return cmd, nil
}

// wait sleeps for d unless ctx ends first. The command has already been
// delivered either way, so cancellation only shortens the wait.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
