package instance

import (
	"context"
	"encoding/json"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/results"
	"github.com/lingy-Mg/project-graph/pkg/telemetry"
)

const (
	TypeCommand = "command"
	TypeResult  = "result"
	TypeHello   = "hello"
)

// Message is one JSON frame (WebSocket) or line (exec) exchanged with the
// application instance.
type Message struct {
	Type string `json:"type"`

	// command
	Ticket    string          `json:"ticket,omitempty"`
	Kind      bridge.Kind     `json:"kind,omitempty"`
	Target    string          `json:"target,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`

	// result
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`

	// hello
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

func commandMessage(cmd bridge.Command) Message {
	return Message{
		Type:      TypeCommand,
		Ticket:    cmd.Ticket,
		Kind:      cmd.Kind,
		Target:    cmd.Target,
		Arguments: cmd.Arguments,
	}
}

// Publisher receives the outcomes reported by the instance.
type Publisher interface {
	Publish(ticket string, outcome results.Outcome) (results.Entry, error)
}

// handleInbound processes one message sent by the instance. It returns the
// announced name for hello messages.
func handleInbound(ctx context.Context, buf []byte, publisher Publisher) (string, error) {
	var msg Message
	if err := json.Unmarshal(buf, &msg); err != nil {
		return "", err
	}

	switch msg.Type {
	case TypeResult:
		entry, err := publisher.Publish(msg.Ticket, results.Outcome{Result: msg.Result, Error: msg.Error})
		if err != nil {
			return "", err
		}
		telemetry.RecordResult(ctx, string(entry.State))
		debugf("> Result for %s %s (%s): %s", entry.Kind, entry.Target, msg.Ticket, entry.State)
	case TypeHello:
		logf("> Application instance says hello: %s %s", msg.Name, msg.Version)
		return msg.Name, nil
	default:
		debugf("! Ignoring message of type %q", msg.Type)
	}

	return "", nil
}
