package session

import (
	"context"
	"sync"
)

// Inflight tracks cancelable work per session so discarding a draft can
// abort the fetches, uploads and submits still running for it.
type Inflight struct {
	mu    sync.Mutex
	seq   uint64
	calls map[string]map[uint64]context.CancelFunc
}

// NewInflight creates an empty registry.
func NewInflight() *Inflight {
	return &Inflight{calls: make(map[string]map[uint64]context.CancelFunc)}
}

// Track derives a context that Cancel(id) aborts. done must be called when
// the work finishes.
func (r *Inflight) Track(ctx context.Context, id string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.seq++
	n := r.seq
	if r.calls[id] == nil {
		r.calls[id] = make(map[uint64]context.CancelFunc)
	}
	r.calls[id][n] = cancel
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		if m := r.calls[id]; m != nil {
			delete(m, n)
			if len(m) == 0 {
				delete(r.calls, id)
			}
		}
		r.mu.Unlock()
		cancel()
	}
}

// Cancel aborts all tracked work for id and returns how many calls it hit.
func (r *Inflight) Cancel(id string) int {
	r.mu.Lock()
	m := r.calls[id]
	delete(r.calls, id)
	r.mu.Unlock()

	for _, cancel := range m {
		cancel()
	}
	return len(m)
}

// Len returns the number of sessions with tracked work.
func (r *Inflight) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
