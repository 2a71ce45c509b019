package usage

import (
	"context"
	"sync"
)

// Sink durably appends usage events. Append reports whether the event
// was actually written: replaying an event with a request id that was
// already appended must return false without writing, which is how
// recording stays at-most-once per request instance.
type Sink interface {
	Append(ctx context.Context, ev Event) (bool, error)
}

// MemorySink collects events in memory for tests and development.
type MemorySink struct {
	mu     sync.Mutex
	byReq  map[string]struct{}
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{byReq: make(map[string]struct{})}
}

func (s *MemorySink) Append(ctx context.Context, ev Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byReq[ev.RequestID]; dup {
		return false, nil
	}
	s.byReq[ev.RequestID] = struct{}{}
	s.events = append(s.events, ev)
	return true, nil
}

// Events returns a snapshot of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
