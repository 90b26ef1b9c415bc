// Package refdata resolves categories and brands through the catalog
// backend, caching them in Redis when a cache is configured.
package refdata

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/catalog-admin/internal/domain"
)

// Cache key layout.
const (
	keyCategories = "categories"
	keyCategory   = "category:"
	keyBrands     = "brands"
)

var cacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "refdata_cache_requests_total",
		Help: "Reference data cache lookups by resource and result (hit, miss, error).",
	},
	[]string{"resource", "result"},
)

// Source is the backend the service reads through to.
type Source interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
}

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	// Get decodes the cached value into dst. found is false on a miss.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Service is a read-through cache over Source. Cache failures are logged
// and fall back to the backend.
type Service struct {
	src    Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewService creates a Service. A nil cache disables caching.
func NewService(src Source, cache Cache, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{src: src, cache: cache, ttl: ttl, logger: logger}
}

// ListCategories returns every category with its field schema.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return readThrough(ctx, s, "categories", keyCategories, s.src.ListCategories)
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return readThrough(ctx, s, "category", keyCategory+id, func(ctx context.Context) (*domain.Category, error) {
		return s.src.GetCategory(ctx, id)
	})
}

// ListBrands returns every brand.
func (s *Service) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	return readThrough(ctx, s, "brands", keyBrands, s.src.ListBrands)
}

// InvalidateCategory drops the category list and the given categories.
func (s *Service) InvalidateCategory(ctx context.Context, ids ...string) {
	keys := []string{keyCategories}
	for _, id := range ids {
		keys = append(keys, keyCategory+id)
	}
	s.invalidate(ctx, keys...)
}

// InvalidateBrands drops the brand list.
func (s *Service) InvalidateBrands(ctx context.Context) {
	s.invalidate(ctx, keyBrands)
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate reference cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

func readThrough[T any](ctx context.Context, s *Service, resource, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}

	var cached T
	found, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		cacheRequests.WithLabelValues(resource, "error").Inc()
		s.logger.WarnContext(ctx, "reference cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	case found:
		cacheRequests.WithLabelValues(resource, "hit").Inc()
		return cached, nil
	default:
		cacheRequests.WithLabelValues(resource, "miss").Inc()
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "reference cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return v, nil
}
