package backend

import (
	"context"
	"sync"
)

// Superseder cancels the previous in-flight request of a kind when a new
// one of the same kind starts, so only the latest result is used.
type Superseder struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflightCall
}

type inflightCall struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewSuperseder creates an empty Superseder.
func NewSuperseder() *Superseder {
	return &Superseder{inflight: make(map[string]inflightCall)}
}

// Begin returns a context for a new request of kind, cancelling any earlier
// request of the same kind. done must be called when the request finishes.
func (s *Superseder) Begin(ctx context.Context, kind string) (reqCtx context.Context, done func()) {
	reqCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.inflight[kind]; ok {
		prev.cancel()
	}
	s.seq++
	seq := s.seq
	s.inflight[kind] = inflightCall{seq: seq, cancel: cancel}
	s.mu.Unlock()

	return reqCtx, func() {
		cancel()
		s.mu.Lock()
		if cur, ok := s.inflight[kind]; ok && cur.seq == seq {
			delete(s.inflight, kind)
		}
		s.mu.Unlock()
	}
}

// Len returns the number of kinds with a request in flight.
func (s *Superseder) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
