package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetUnavailable is returned when no application instance is attached.
	ErrTargetUnavailable = errors.New("target unavailable: no application instance attached")

	// ErrInvalidArgument is returned for requests that cannot be dispatched as given.
	ErrInvalidArgument = errors.New("invalid argument")
)

// DeliveryError wraps a failure of the instance's transport to accept a command.
type DeliveryError struct {
	Kind   Kind
	Target string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering %s %q: %s", e.Kind, e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
