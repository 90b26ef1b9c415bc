package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/utafrali/catalog-admin/internal/backend"
	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/specform"
	"github.com/utafrali/catalog-admin/pkg/pagination"
	"github.com/utafrali/catalog-admin/pkg/slug"
	"github.com/utafrali/catalog-admin/pkg/validator"
)

// CatalogService exposes the reference lists and the plain CRUD screens.
type CatalogService struct {
	refs    ReferenceData
	backend CatalogBackend
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(refs ReferenceData, backend CatalogBackend, logger *slog.Logger) *CatalogService {
	return &CatalogService{refs: refs, backend: backend, logger: logger}
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.refs.ListCategories(ctx)
}

// GetCategory returns one category.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.refs.GetCategory(ctx, id)
}

// CategoryForm renders the empty specification section for a category.
func (s *CatalogService) CategoryForm(ctx context.Context, id string) (specform.Form, error) {
	c, err := s.refs.GetCategory(ctx, id)
	if err != nil {
		return specform.Form{}, err
	}
	return specform.Render(c, nil, nil, s.logger), nil
}

// ListBrands returns every brand.
func (s *CatalogService) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	return s.refs.ListBrands(ctx)
}

// CreateBrand validates and creates a brand. A blank slug is derived from
// the name.
func (s *CatalogService) CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
	in = normalizeBrand(in)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	b, err := s.backend.CreateBrand(ctx, in)
	if err != nil {
		return nil, err
	}
	s.refs.InvalidateBrands(ctx)
	s.logger.InfoContext(ctx, "brand created", slog.String("brand_id", b.ID))
	return b, nil
}

// UpdateBrand validates and updates a brand.
func (s *CatalogService) UpdateBrand(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	in = normalizeBrand(in)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	b, err := s.backend.UpdateBrand(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.refs.InvalidateBrands(ctx)
	return b, nil
}

// DeleteBrand deletes a brand.
func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	if err := s.backend.DeleteBrand(ctx, id); err != nil {
		return err
	}
	s.refs.InvalidateBrands(ctx)
	return nil
}

// ListProducts returns one page of products.
func (s *CatalogService) ListProducts(ctx context.Context, p pagination.Params, filter domain.ProductFilter) (backend.Page[domain.Product], error) {
	return s.backend.ListProducts(ctx, p, filter)
}

// DeleteProduct deletes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// ListAgents returns the agent list untouched.
func (s *CatalogService) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return s.backend.ListAgents(ctx)
}

// ListPickupStations returns the pickup station list untouched.
func (s *CatalogService) ListPickupStations(ctx context.Context) ([]domain.PickupStation, error) {
	return s.backend.ListPickupStations(ctx)
}

func normalizeBrand(in domain.BrandInput) domain.BrandInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = slug.Generate(in.Name)
	}
	return in
}
