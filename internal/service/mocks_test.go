package service

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/catalog-admin/internal/backend"
	"github.com/utafrali/catalog-admin/internal/domain"
	pkgkafka "github.com/utafrali/catalog-admin/pkg/kafka"
	"github.com/utafrali/catalog-admin/pkg/pagination"
)

// --- Mock ReferenceData ---

type mockRefs struct {
	mock.Mock
}

func (m *mockRefs) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockRefs) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockRefs) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Brand), args.Error(1)
}

func (m *mockRefs) InvalidateCategory(ctx context.Context, ids ...string) {
	m.Called(ctx, ids)
}

func (m *mockRefs) InvalidateBrands(ctx context.Context) {
	m.Called(ctx)
}

// --- Mock catalog backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListProducts(ctx context.Context, p pagination.Params, filter domain.ProductFilter) (backend.Page[domain.Product], error) {
	args := m.Called(ctx, p, filter)
	return args.Get(0).(backend.Page[domain.Product]), args.Error(1)
}

func (m *mockBackend) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockBackend) CreateProduct(ctx context.Context, in domain.ProductPayload) (*domain.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockBackend) UpdateProduct(ctx context.Context, id string, in domain.ProductPayload) (*domain.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockBackend) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockBackend) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockBackend) DeleteCategory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) GetBrand(ctx context.Context, id string) (*domain.Brand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Brand), args.Error(1)
}

func (m *mockBackend) CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Brand), args.Error(1)
}

func (m *mockBackend) UpdateBrand(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Brand), args.Error(1)
}

func (m *mockBackend) DeleteBrand(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Agent), args.Error(1)
}

func (m *mockBackend) ListPickupStations(ctx context.Context) ([]domain.PickupStation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PickupStation), args.Error(1)
}

// --- Recording publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func laptopCategory() *domain.Category {
	return &domain.Category{
		ID:     "cat-laptops",
		Name:   "Laptops",
		Slug:   "laptops",
		Status: domain.CategoryStatusActive,
		CustomFields: []domain.CustomFieldSchema{
			{Key: "ram", Label: "RAM", InputType: domain.InputSelect, Options: []string{"8GB", "16GB"}, Required: true, Order: 1},
			{Key: "ports", Label: "Ports", InputType: domain.InputMultiSelect, Options: []string{"USB-C", "HDMI"}, Order: 2},
			{Key: "touchscreen", Label: "Touchscreen", InputType: domain.InputBoolean, Order: 3},
			{Key: "weight", Label: "Weight", InputType: domain.InputNumber, Order: 4},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
