package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/client"
	"github.com/lingy-Mg/project-graph/pkg/results"
)

const pollInterval = 100 * time.Millisecond

// Call invokes a tool with key=value arguments. With a non zero wait, it
// then polls for the application's outcome.
func Call(ctx context.Context, out io.Writer, c *client.Client, wait time.Duration, args []string) error {
	if len(args) == 0 {
		return errors.New("no tool name provided")
	}
	toolName := args[0]

	start := time.Now()
	response, err := c.CallTool(ctx, toolName, parseArgs(args[1:]))
	if err != nil {
		return fmt.Errorf("calling tool %s: %w", toolName, err)
	}
	fmt.Fprintln(out, "Tool call took:", time.Since(start))

	if err := printJSON(out, response); err != nil {
		return err
	}

	if wait <= 0 {
		return nil
	}

	ticket, _ := response["ticket"].(string)
	if ticket == "" {
		return errors.New("no ticket in the response")
	}

	entry, err := Await(ctx, c, ticket, wait)
	if err != nil {
		return err
	}
	if entry.State == results.StateFailed {
		return fmt.Errorf("tool %s failed: %s", toolName, entry.Error)
	}

	return printJSON(out, entry)
}

// Await polls a ticket until it is no longer pending or timeout elapses.
func Await(ctx context.Context, c *client.Client, ticket string, timeout time.Duration) (results.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		entry, pending, err := c.Result(ctx, ticket)
		if err != nil {
			return results.Entry{}, err
		}
		if !pending {
			return entry, nil
		}

		select {
		case <-ctx.Done():
			return results.Entry{}, fmt.Errorf("waiting for ticket %s: %w", ticket, ctx.Err())
		case <-ticker.C:
		}
	}
}

// parseArgs turns key=value pairs into tool arguments. Values that are valid
// JSON (numbers, booleans, objects) are decoded, anything else is a string.
// A repeated key becomes a list.
func parseArgs(args []string) map[string]any {
	parsed := map[string]any{}

	for _, arg := range args {
		var (
			key   string
			value any
		)

		if k, v, found := strings.Cut(arg, "="); found {
			key = k
			value = parseValue(v)
		} else {
			key = arg
			value = nil
		}

		if previous, found := parsed[key]; found {
			switch previous := previous.(type) {
			case []any:
				parsed[key] = append(previous, value)
			default:
				parsed[key] = []any{previous, value}
			}
		} else {
			parsed[key] = value
		}
	}

	return parsed
}

func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
