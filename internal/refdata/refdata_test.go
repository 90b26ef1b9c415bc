package refdata

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/internal/domain"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// --- Mock Source ---

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockSource) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockSource) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Brand), args.Error(1)
}

// --- Helpers ---

func setupService(t *testing.T) (*Service, *mockSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := new(mockSource)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(src, NewRedisCache(client), time.Minute, logger), src, mr
}

func laptops() *domain.Category {
	return &domain.Category{
		ID:   "c1",
		Name: "Laptops",
		CustomFields: []domain.CustomFieldSchema{
			{Key: "ram", Label: "RAM", InputType: domain.InputSelect, Options: []string{"8GB"}, Required: true, Order: 1},
		},
	}
}

// ---------------------------------------------------------------------------
// Read-through
// ---------------------------------------------------------------------------

func TestGetCategory_CachesAfterFirstRead(t *testing.T) {
	svc, src, mr := setupService(t)
	ctx := context.Background()
	src.On("GetCategory", ctx, "c1").Return(laptops(), nil).Once()

	first, err := svc.GetCategory(ctx, "c1")
	require.NoError(t, err)
	second, err := svc.GetCategory(ctx, "c1")
	require.NoError(t, err)

	assert.Equal(t, first.CustomFields, second.CustomFields)
	src.AssertNumberOfCalls(t, "GetCategory", 1)
	assert.True(t, mr.Exists(keyPrefix+"category:c1"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"category:c1"))
}

func TestListBrands_ErrorNotCached(t *testing.T) {
	svc, src, mr := setupService(t)
	ctx := context.Background()
	src.On("ListBrands", ctx).Return(nil, apperrors.Unavailable("down")).Once()

	_, err := svc.ListBrands(ctx)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.False(t, mr.Exists(keyPrefix+"brands"))
}

func TestInvalidateCategory(t *testing.T) {
	svc, src, _ := setupService(t)
	ctx := context.Background()
	src.On("ListCategories", ctx).Return([]domain.Category{*laptops()}, nil).Twice()

	_, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	svc.InvalidateCategory(ctx, "c1")
	_, err = svc.ListCategories(ctx)
	require.NoError(t, err)

	src.AssertNumberOfCalls(t, "ListCategories", 2)
}

func TestCacheOutage_FallsBackToBackend(t *testing.T) {
	svc, src, mr := setupService(t)
	ctx := context.Background()
	src.On("ListBrands", ctx).Return([]domain.Brand{{ID: "b1"}}, nil)

	mr.Close()

	brands, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 1)
	svc.InvalidateBrands(ctx)
}

func TestNilCache_DirectReads(t *testing.T) {
	src := new(mockSource)
	svc := NewService(src, nil, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	src.On("GetCategory", ctx, "c1").Return(laptops(), nil).Twice()

	_, _ = svc.GetCategory(ctx, "c1")
	_, _ = svc.GetCategory(ctx, "c1")
	svc.InvalidateCategory(ctx, "c1")

	src.AssertNumberOfCalls(t, "GetCategory", 2)
}

// ---------------------------------------------------------------------------
// RedisCache
// ---------------------------------------------------------------------------

func TestRedisCache_GetMissAndCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client)
	ctx := context.Background()

	var dst []domain.Brand
	found, err := cache.Get(ctx, "brands", &dst)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mr.Set(keyPrefix+"brands", "{not json"))
	_, err = cache.Get(ctx, "brands", &dst)
	assert.Error(t, err)

	assert.NoError(t, cache.Delete(ctx))
	assert.NoError(t, cache.Delete(ctx, "brands"))
	assert.False(t, mr.Exists(keyPrefix+"brands"))
}
