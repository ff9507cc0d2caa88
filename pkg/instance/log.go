package instance

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

func debugf(format string, a ...any) {
	logs.Logger.Debug(fmt.Sprintf(format, a...))
}
