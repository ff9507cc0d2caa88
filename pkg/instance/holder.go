package instance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
)

var ErrAlreadyAttached = errors.New("an application instance is already attached")

// Info describes the attached instance.
type Info struct {
	Name      string    `json:"name,omitempty"`
	Transport string    `json:"transport"`
	Since     time.Time `json:"since"`
}

// Holder is the single slot through which commands reach the application.
// It is itself a bridge.Target.
type Holder struct {
	mu     sync.RWMutex
	target bridge.Target
	info   Info
	// generation identifies the current attachment so that a stale one
	// cannot detach its successor.
	generation uint64
}

func NewHolder() *Holder {
	return &Holder{}
}

// Attachment is returned by Attach and releases the slot.
type Attachment struct {
	holder     *Holder
	generation uint64
}

// Attach occupies the slot. It fails while another instance is attached.
func (h *Holder) Attach(target bridge.Target, info Info) (*Attachment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.target != nil {
		return nil, ErrAlreadyAttached
	}

	if info.Since.IsZero() {
		info.Since = time.Now()
	}
	h.generation++
	h.target = target
	h.info = info

	return &Attachment{holder: h, generation: h.generation}, nil
}

func (h *Holder) Attached() (Info, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.info, h.target != nil
}

func (h *Holder) Deliver(ctx context.Context, cmd bridge.Command) error {
	h.mu.RLock()
	target := h.target
	h.mu.RUnlock()

	if target == nil {
		return bridge.ErrTargetUnavailable
	}
	return target.Deliver(ctx, cmd)
}

// Detach frees the slot. It reports false if the attachment was already released.
func (a *Attachment) Detach() bool {
	h := a.holder
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.target == nil || h.generation != a.generation {
		return false
	}

	h.target = nil
	h.info = Info{}
	return true
}

// Rename records the name the instance announced for itself.
func (a *Attachment) Rename(name string) {
	h := a.holder
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.target != nil && h.generation == a.generation {
		h.info.Name = name
	}
}
