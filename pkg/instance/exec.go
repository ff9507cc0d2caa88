package instance

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/shlex"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/logs"
)

// maxMessageSize bounds one message from the application instance, a stdout
// line or a WebSocket frame.
const maxMessageSize = 16 * 1024 * 1024

// Process is an application instance run as a child process. Commands are
// written to its stdin and results read from its stdout, one JSON document
// per line.
type Process struct {
	name string
	cmd  *exec.Cmd

	mu    sync.Mutex
	stdin io.WriteCloser

	done chan struct{}
	err  error
}

// StartProcess spawns commandLine and attaches it to holder until it exits.
func StartProcess(ctx context.Context, commandLine string, holder *Holder, publisher Publisher) (*Process, error) {
	args, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", commandLine, err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty application command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	p := &Process{
		name:  filepath.Base(args[0]),
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
	}
	stderr := logs.NewProcessOutput(p.name)
	cmd.Stderr = stderr

	attachment, err := holder.Attach(p, Info{Name: p.name, Transport: "exec"})
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		attachment.Detach()
		return nil, fmt.Errorf("starting %s: %w", p.name, err)
	}
	logf("> Application instance %s started (pid %d)", p.name, cmd.Process.Pid)

	go func() {
		defer close(p.done)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			name, err := handleInbound(ctx, line, publisher)
			switch {
			case err != nil:
				debugf("  - %s: %s", p.name, line)
			case name != "":
				attachment.Rename(name)
			}
		}

		if err := scanner.Err(); err != nil {
			logf("! Reading from application instance %s: %s", p.name, err)
		}

		attachment.Detach()
		// The process must not block on a full stdout pipe.
		_, _ = io.Copy(io.Discard, stdout)
		p.err = cmd.Wait()
		stderr.Flush()
		if p.err != nil {
			logf("> Application instance %s exited: %s", p.name, p.err)
		} else {
			logf("> Application instance %s exited", p.name)
		}
	}()

	return p, nil
}

func (p *Process) Deliver(_ context.Context, cmd bridge.Command) error {
	buf, err := json.Marshal(commandMessage(cmd))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err = p.stdin.Write(append(buf, '\n'))
	return err
}

// Wait blocks until the process exited and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Stop closes the process' stdin, which well behaved instances take as a
// signal to exit.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stdin.Close()
}
