package interceptors

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/logs"
)

type recordingTarget struct {
	mu       sync.Mutex
	commands []bridge.Command
}

func (r *recordingTarget) Deliver(_ context.Context, cmd bridge.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return nil
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "hook.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []Interceptor
		wantErr bool
	}{
		{
			name:  "exec",
			specs: []string{"before:exec:/usr/bin/jq -c ."},
			want:  []Interceptor{{When: "before", Type: "exec", Argument: "/usr/bin/jq -c ."}},
		},
		{
			name:  "http keeps colons in the url",
			specs: []string{"After:HTTP:http://localhost:8080/audit"},
			want:  []Interceptor{{When: "after", Type: "http", Argument: "http://localhost:8080/audit"}},
		},
		{name: "missing parts", specs: []string{"before:exec"}, wantErr: true},
		{name: "bad when", specs: []string{"around:exec:/bin/true"}, wantErr: true},
		{name: "docker is not supported", specs: []string{"before:docker:image"}, wantErr: true},
		{name: "empty argument", specs: []string{"before:exec: "}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(test.specs)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestCallbacksOrder(t *testing.T) {
	interceptors, err := Parse([]string{"after:exec:true", "before:exec:true"})
	require.NoError(t, err)

	assert.Len(t, Callbacks(true, interceptors), 3)
	assert.Len(t, Callbacks(false, interceptors), 2)
	assert.Empty(t, Callbacks(false, nil))

	var order []string
	tag := func(name string) Middleware {
		return func(next bridge.Target) bridge.Target {
			return bridge.TargetFunc(func(ctx context.Context, cmd bridge.Command) error {
				order = append(order, name)
				return next.Deliver(ctx, cmd)
			})
		}
	}

	target := Chain(&recordingTarget{}, []Middleware{tag("outer"), tag("inner")})
	require.NoError(t, target.Deliver(context.Background(), bridge.Command{}))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLogCalls(t *testing.T) {
	var out bytes.Buffer
	logs.Setup(&out, false)
	t.Cleanup(func() { logs.Setup(os.Stderr, false) })

	target := &recordingTarget{}
	err := LogCalls(target).Deliver(context.Background(), bridge.Command{
		Kind:      bridge.KindCallTool,
		Target:    "deleteNode",
		Arguments: json.RawMessage(`{"nodeId":"n1"}`),
	})
	require.NoError(t, err)

	assert.Len(t, target.commands, 1)
	assert.Contains(t, out.String(), `- Delivering callTool deleteNode with arguments: {"nodeId":"n1"}`)
	assert.Contains(t, out.String(), "> Delivering callTool deleteNode took:")
}

func TestBeforeExecRewritesArguments(t *testing.T) {
	script := writeScript(t, `cat > /dev/null
echo '{"arguments":{"text":"rewritten","x":0,"y":0}}'
`)

	interceptors, err := Parse([]string{"before:exec:sh " + script})
	require.NoError(t, err)

	target := &recordingTarget{}
	wrapped := Chain(target, Callbacks(false, interceptors))

	err = wrapped.Deliver(context.Background(), bridge.Command{
		Ticket:    "t-1",
		Kind:      bridge.KindCallTool,
		Target:    "addNode",
		Arguments: json.RawMessage(`{"text":"original","x":1,"y":2}`),
	})
	require.NoError(t, err)

	require.Len(t, target.commands, 1)
	assert.Equal(t, "addNode", target.commands[0].Target)
	assert.Equal(t, "t-1", target.commands[0].Ticket)
	assert.JSONEq(t, `{"text":"rewritten","x":0,"y":0}`, string(target.commands[0].Arguments))
}

func TestBeforeExecSilentKeepsCommand(t *testing.T) {
	script := writeScript(t, "cat > /dev/null\n")

	interceptors, err := Parse([]string{"before:exec:sh " + script})
	require.NoError(t, err)

	target := &recordingTarget{}
	err = Chain(target, Callbacks(false, interceptors)).Deliver(context.Background(), bridge.Command{
		Kind:      bridge.KindCallTool,
		Target:    "updateNode",
		Arguments: json.RawMessage(`{"nodeId":"n1","text":"t"}`),
	})
	require.NoError(t, err)

	require.Len(t, target.commands, 1)
	assert.JSONEq(t, `{"nodeId":"n1","text":"t"}`, string(target.commands[0].Arguments))
}

func TestBeforeExecFailureBlocksDelivery(t *testing.T) {
	script := writeScript(t, "echo 'denied' >&2\nexit 3\n")

	interceptors, err := Parse([]string{"before:exec:sh " + script})
	require.NoError(t, err)

	target := &recordingTarget{}
	err = Chain(target, Callbacks(false, interceptors)).Deliver(context.Background(), bridge.Command{
		Kind:   bridge.KindCallTool,
		Target: "deleteNode",
	})

	var deliveryErr *bridge.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, "deleteNode", deliveryErr.Target)
	assert.Empty(t, target.commands)
}

func TestAfterHTTPSeesDeliveredCommands(t *testing.T) {
	var (
		mu       sync.Mutex
		received []bridge.Command
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		var cmd bridge.Command
		_ = json.Unmarshal(buf, &cmd)

		mu.Lock()
		received = append(received, cmd)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	interceptors, err := Parse([]string{"after:http:" + server.URL})
	require.NoError(t, err)

	wrapped := Chain(&recordingTarget{}, Callbacks(false, interceptors))
	require.NoError(t, wrapped.Deliver(context.Background(), bridge.Command{Ticket: "t-9", Kind: bridge.KindGetPrompt, Target: "analyze-project"}))

	// Commands that were not delivered are not reported.
	failing := Chain(bridge.TargetFunc(func(context.Context, bridge.Command) error {
		return bridge.ErrTargetUnavailable
	}), Callbacks(false, interceptors))
	require.ErrorIs(t, failing.Deliver(context.Background(), bridge.Command{Ticket: "t-10"}), bridge.ErrTargetUnavailable)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "t-9", received[0].Ticket)
	assert.Equal(t, bridge.KindGetPrompt, received[0].Kind)
}

func TestAfterHTTPFailureIsOnlyLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	interceptors, err := Parse([]string{"after:http:" + server.URL})
	require.NoError(t, err)

	target := &recordingTarget{}
	require.NoError(t, Chain(target, Callbacks(false, interceptors)).Deliver(context.Background(), bridge.Command{Ticket: "t-11"}))
	assert.Len(t, target.commands, 1)
}
