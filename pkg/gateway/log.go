package gateway

import (
	"fmt"

	"github.com/lingy-Mg/project-graph/pkg/logs"
)

func log(a ...any) {
	logs.Logger.Info(logs.Line(a...))
}

func logf(format string, a ...any) {
	logs.Logger.Info(fmt.Sprintf(format, a...))
}
