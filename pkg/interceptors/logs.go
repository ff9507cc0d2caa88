package interceptors

import (
	"fmt"

	"github.com/lingy-Mg/project-graph/pkg/logs"
)

func logf(format string, a ...any) {
	logs.Logger.Info(fmt.Sprintf(format, a...))
}
