package upload

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// MemoryStore keeps images in process memory. Used in development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

// NewMemoryStore creates a MemoryStore serving URLs under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, f File) (Asset, error) {
	return upload(ctx, DriverMemory, f, func(ctx context.Context, r io.Reader) (Asset, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return Asset{}, fmt.Errorf("read: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return Asset{}, err
		}

		id := "products/" + uuid.New().String()
		s.mu.Lock()
		s.objects[id] = data
		s.mu.Unlock()
		return Asset{URL: s.baseURL + "/" + id, PublicID: id}, nil
	})
}

func (s *MemoryStore) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[publicID]; !ok {
		return apperrors.NotFound("image", publicID)
	}
	delete(s.objects, publicID)
	return nil
}

// Len returns the number of stored images.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
