package interceptors

import (
	"context"
	"time"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
)

func LogCalls(next bridge.Target) bridge.Target {
	return bridge.TargetFunc(func(ctx context.Context, cmd bridge.Command) error {
		start := time.Now()

		logf("- Delivering %s %s with arguments: %s", cmd.Kind, cmd.Target, argumentsToString(cmd.Arguments))

		if err := next.Deliver(ctx, cmd); err != nil {
			logf("> Delivering %s %s failed: %s", cmd.Kind, cmd.Target, err)
			return err
		}

		logf("> Delivering %s %s took: %s", cmd.Kind, cmd.Target, time.Since(start))

		return nil
	})
}
