// Package service implements the admin workflows behind the HTTP API:
// product drafts, category builder drafts and catalog passthrough.
package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/catalog-admin/internal/backend"
	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/pkg/pagination"
)

var submitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_product_submits_total",
		Help: "Product draft submissions by mode and result (success, invalid, failed, busy).",
	},
	[]string{"mode", "result"},
)

// ReferenceData resolves categories and brands, usually through the
// refdata cache.
type ReferenceData interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
	InvalidateCategory(ctx context.Context, ids ...string)
	InvalidateBrands(ctx context.Context)
}

// ProductBackend is the product half of the catalog backend.
type ProductBackend interface {
	ListProducts(ctx context.Context, p pagination.Params, filter domain.ProductFilter) (backend.Page[domain.Product], error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductPayload) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in domain.ProductPayload) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CategoryBackend persists categories.
type CategoryBackend interface {
	CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CatalogBackend covers brands, products and the opaque reference lists.
type CatalogBackend interface {
	ProductBackend
	GetBrand(ctx context.Context, id string) (*domain.Brand, error)
	CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error)
	UpdateBrand(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error)
	DeleteBrand(ctx context.Context, id string) error
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	ListPickupStations(ctx context.Context) ([]domain.PickupStation, error)
}

// background detaches ctx from the request's cancellation so bookkeeping
// after a backend call still runs when the client goes away.
func background(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
