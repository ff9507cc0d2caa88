package interceptors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"go.opentelemetry.io/otel/codes"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/logs"
	"github.com/lingy-Mg/project-graph/pkg/telemetry"
)

// Middleware wraps the delivery of commands to the application instance.
type Middleware func(next bridge.Target) bridge.Target

// Callbacks returns the middlewares to apply, outermost first.
func Callbacks(logCalls bool, interceptors []Interceptor) []Middleware {
	var middlewares []Middleware

	if logCalls {
		middlewares = append(middlewares, LogCalls)
	}

	for i := range interceptors {
		middlewares = append(middlewares, interceptors[i].Run)
	}

	return middlewares
}

// Chain wraps target so that middlewares[0] runs first.
func Chain(target bridge.Target, middlewares []Middleware) bridge.Target {
	for i := len(middlewares) - 1; i >= 0; i-- {
		target = middlewares[i](target)
	}
	return target
}

type Interceptor struct {
	When     string
	Type     string
	Argument string
}

// --interceptor=before:exec:/bin/path --flag
// --interceptor=after:http:http://localhost:8080/audit
func Parse(specs []string) ([]Interceptor, error) {
	var interceptors []Interceptor

	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid interceptor spec '%s', expected format is 'when:type:argument'", spec)
		}

		w := strings.ToLower(parts[0])
		if w != "before" && w != "after" {
			return nil, fmt.Errorf("invalid interceptor when: '%s', expected 'before' or 'after'", w)
		}

		t := strings.ToLower(parts[1])
		if t != "exec" && t != "http" {
			return nil, fmt.Errorf("invalid interceptor type: '%s', expected 'exec' or 'http'", t)
		}

		if strings.TrimSpace(parts[2]) == "" {
			return nil, fmt.Errorf("invalid interceptor spec '%s', missing argument", spec)
		}

		interceptors = append(interceptors, Interceptor{
			When:     w,
			Type:     t,
			Argument: parts[2],
		})
	}

	return interceptors, nil
}

// Run hooks the interceptor around next. A before hook sees the command as
// JSON and may print a command back to replace its arguments; if it fails the
// command is not delivered. An after hook sees delivered commands only and
// its failures are logged.
func (i *Interceptor) Run(next bridge.Target) bridge.Target {
	return bridge.TargetFunc(func(ctx context.Context, cmd bridge.Command) error {
		if i.When == "before" {
			message, err := json.Marshal(cmd)
			if err != nil {
				return fmt.Errorf("marshalling command: %w", err)
			}

			out, err := i.run(ctx, message)
			if err != nil {
				return &bridge.DeliveryError{Kind: cmd.Kind, Target: cmd.Target, Err: fmt.Errorf("executing interceptor: %w", err)}
			}

			if out = bytes.TrimSpace(out); len(out) > 0 {
				var rewritten bridge.Command
				if err := json.Unmarshal(out, &rewritten); err != nil {
					return &bridge.DeliveryError{Kind: cmd.Kind, Target: cmd.Target, Err: fmt.Errorf("unmarshalling interceptor output: %w", err)}
				}

				if rewritten.Arguments != nil {
					cmd.Arguments = rewritten.Arguments
				}
			}
		}

		err := next.Deliver(ctx, cmd)

		if i.When == "after" && err == nil {
			message, err := json.Marshal(cmd)
			if err != nil {
				return fmt.Errorf("marshalling command: %w", err)
			}

			if _, err := i.run(ctx, message); err != nil {
				logf("! After interceptor %s failed: %s", i.Argument, err)
			}
		}

		return err
	})
}

func (i *Interceptor) run(ctx context.Context, message []byte) ([]byte, error) {
	ctx, span := telemetry.StartInterceptorSpan(ctx, i.When, i.Type)
	defer span.End()

	var (
		out []byte
		err error
	)
	switch i.Type {
	case "exec":
		out, err = i.runExec(ctx, message)
	case "http":
		out, err = i.runHTTP(ctx, message)
	default:
		err = fmt.Errorf("unknown interceptor type '%s'", i.Type)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (i *Interceptor) runExec(ctx context.Context, message []byte) ([]byte, error) {
	args, err := shlex.Split(i.Argument)
	if err != nil {
		return nil, fmt.Errorf("parsing command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}

	stderr := logs.NewProcessOutput(filepath.Base(args[0]))
	defer stderr.Flush()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewBuffer(message)
	cmd.Stderr = stderr
	return cmd.Output()
}

func (i *Interceptor) runHTTP(ctx context.Context, message []byte) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, i.Argument, bytes.NewBuffer(message))
	if err != nil {
		return nil, fmt.Errorf("preparing HTTP request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("making HTTP request: %w", err)
	}
	defer response.Body.Close()

	buf, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading HTTP response: %w", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("HTTP interceptor returned %s", response.Status)
	}

	return buf, nil
}
