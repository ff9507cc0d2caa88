package logs

import (
	"fmt"
	"io"
	"os"
	"strings"

	logging "gopkg.in/op/go-logging.v1"
)

const module = "project-graph-mcp"

const (
	plainFormat   = `%{message}`
	verboseFormat = `%{time:15:04:05.000} %{level:.4s} %{message}`
)

// Logger is the process wide logger. Packages go through their own small
// log/logf helpers instead of using it directly.
var Logger = logging.MustGetLogger(module)

func init() {
	Setup(os.Stderr, false)
}

// Setup routes every log line to out. Verbose mode adds timestamps and enables
// debug lines.
func Setup(out io.Writer, verbose bool) {
	format := plainFormat
	level := logging.INFO
	if verbose {
		format = verboseFormat
		level = logging.DEBUG
	}

	backend := logging.NewBackendFormatter(logging.NewLogBackend(out, "", 0), logging.MustStringFormatter(format))
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}

// Line formats its arguments the way fmt.Println does, minus the newline.
func Line(a ...any) string {
	return strings.TrimSuffix(fmt.Sprintln(a...), "\n")
}
