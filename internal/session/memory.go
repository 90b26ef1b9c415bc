package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore[T any] struct {
	mu      sync.Mutex
	kind    string
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore creates a MemoryStore for drafts of the given kind.
func NewMemoryStore[T any](kind string, ttl time.Duration) *MemoryStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore[T]{
		kind:    kind,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore[T]) Create(_ context.Context, v T) (string, error) {
	data, err := encode(v)
	if err != nil {
		return "", err
	}
	id := newID()

	s.mu.Lock()
	s.entries[id] = memoryEntry{data: data, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()

	observe(s.kind, "create", nil)
	return id, nil
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.Lock()
	e, ok := s.lookup(id)
	s.mu.Unlock()

	if !ok {
		var zero T
		observe(s.kind, "get", apperrors.ErrNotFound)
		return zero, apperrors.NotFound(s.kind, id)
	}
	v, err := decode[T](e.data)
	observe(s.kind, "get", err)
	return v, err
}

func (s *MemoryStore[T]) Update(_ context.Context, id string, fn func(*T) error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	e, ok := s.lookup(id)
	if !ok {
		observe(s.kind, "update", apperrors.ErrNotFound)
		return zero, apperrors.NotFound(s.kind, id)
	}
	v, err := decode[T](e.data)
	if err != nil {
		return zero, err
	}
	if err := fn(&v); err != nil {
		observe(s.kind, "update", err)
		return zero, err
	}
	data, err := encode(v)
	if err != nil {
		return zero, err
	}
	s.entries[id] = memoryEntry{data: data, expires: s.now().Add(s.ttl)}
	observe(s.kind, "update", nil)
	return v, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(id); !ok {
		return apperrors.NotFound(s.kind, id)
	}
	delete(s.entries, id)
	observe(s.kind, "delete", nil)
	return nil
}

// lookup must be called with mu held. Expired entries are dropped.
func (s *MemoryStore[T]) lookup(id string) (memoryEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}

// Sweep removes expired entries and reports how many were dropped.
func (s *MemoryStore[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// RunSweeper sweeps every interval until ctx is done.
func (s *MemoryStore[T]) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("expired draft sessions removed",
					slog.String("kind", s.kind),
					slog.Int("count", n),
				)
			}
		}
	}
}

// Len returns the number of live entries.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
