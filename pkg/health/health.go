package health

import "sync/atomic"

// State reports whether the HTTP surface is bound and serving.
type State struct {
	healthy atomic.Bool
}

func (h *State) IsHealthy() bool {
	return h.healthy.Load()
}

func (h *State) SetHealthy() {
	h.healthy.Store(true)
}

func (h *State) SetUnhealthy() {
	h.healthy.Store(false)
}
