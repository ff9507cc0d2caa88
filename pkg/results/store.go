package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 10_000
)

var ErrUnknownTicket = errors.New("unknown ticket")

type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Entry is what is known about one dispatched command.
type Entry struct {
	Ticket      string          `json:"ticket"`
	Kind        string          `json:"kind,omitempty"`
	Target      string          `json:"target,omitempty"`
	State       State           `json:"state"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Outcome is published by the application instance once a command ran.
type Outcome struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Config struct {
	TTL        time.Duration
	MaxEntries int64
}

// Store keeps outcomes for a while so callers can poll them by ticket.
type Store struct {
	mu    sync.Mutex
	cache *ristretto.Cache
	ttl   time.Duration
	now   func() time.Time
}

func New(config Config) (*Store, error) {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        config.MaxEntries * 10,
		MaxCost:            config.MaxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	return &Store{
		cache: cache,
		ttl:   config.TTL,
		now:   time.Now,
	}, nil
}

// Pending records a ticket that was just dispatched.
func (s *Store) Pending(ticket, kind, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(Entry{
		Ticket:    ticket,
		Kind:      kind,
		Target:    target,
		State:     StatePending,
		CreatedAt: s.now(),
	})
}

// Publish completes a pending ticket with what the instance reported.
func (s *Store) Publish(ticket string, outcome Outcome) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.get(ticket)
	if !found {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownTicket, ticket)
	}

	completedAt := s.now()
	entry.CompletedAt = &completedAt
	entry.Result = outcome.Result
	entry.Error = outcome.Error
	entry.State = StateDone
	if outcome.Error != "" {
		entry.State = StateFailed
	}

	s.set(entry)
	return entry, nil
}

// Fail marks a ticket whose command never reached the instance.
func (s *Store) Fail(ticket string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.get(ticket)
	if !found {
		entry = Entry{Ticket: ticket, CreatedAt: s.now()}
	}

	completedAt := s.now()
	entry.CompletedAt = &completedAt
	entry.State = StateFailed
	entry.Error = err.Error()

	s.set(entry)
}

func (s *Store) Get(ticket string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(ticket)
}

func (s *Store) Close() {
	s.cache.Close()
}

func (s *Store) get(ticket string) (Entry, bool) {
	v, found := s.cache.Get(ticket)
	if !found {
		return Entry{}, false
	}

	entry, ok := v.(Entry)
	return entry, ok
}

// set waits for the write to land so that a Get right after sees it.
func (s *Store) set(entry Entry) {
	s.cache.SetWithTTL(entry.Ticket, entry, 1, s.ttl)
	s.cache.Wait()
}
