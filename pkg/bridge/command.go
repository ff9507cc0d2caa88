package bridge

import (
	"context"
	"encoding/json"
)

// Kind is the operation an application instance is asked to perform.
type Kind string

const (
	KindReadResource Kind = "readResource"
	KindCallTool     Kind = "callTool"
	KindGetPrompt    Kind = "getPrompt"
)

// Command is what gets delivered to the application instance. It is created
// per request and consumed once. The ticket correlates it with the outcome the
// instance may publish later.
type Command struct {
	Ticket    string          `json:"ticket"`
	Kind      Kind            `json:"kind"`
	Target    string          `json:"target"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Target accepts commands for execution. A nil error means the command was
// handed over, not that it ran.
type Target interface {
	Deliver(ctx context.Context, cmd Command) error
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(ctx context.Context, cmd Command) error

func (f TargetFunc) Deliver(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Tracker is told about every ticket before delivery and about failed ones after.
type Tracker interface {
	Pending(ticket, kind, target string)
	Fail(ticket string, err error)
}

type noopTracker struct{}

func (noopTracker) Pending(string, string, string) {}
func (noopTracker) Fail(string, error)             {}
