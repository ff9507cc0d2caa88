package logs

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// ProcessOutput turns what a child process writes into log lines tagged with
// the process name. A partial line is held until its newline or Flush.
type ProcessOutput struct {
	mu      sync.Mutex
	name    string
	pending bytes.Buffer
}

func NewProcessOutput(name string) *ProcessOutput {
	return &ProcessOutput{name: name}
}

func (p *ProcessOutput) Write(payload []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.Write(payload)
	for {
		i := bytes.IndexByte(p.pending.Bytes(), '\n')
		if i < 0 {
			break
		}
		p.emit(string(p.pending.Next(i + 1)))
	}

	return len(payload), nil
}

// Flush logs what is left of an unterminated last line.
func (p *ProcessOutput) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending.Len() > 0 {
		p.emit(p.pending.String())
		p.pending.Reset()
	}
}

func (p *ProcessOutput) emit(line string) {
	Logger.Info(fmt.Sprintf("  - %s: %s", p.name, strings.TrimRight(line, "\r\n")))
}
