package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/pkg/pagination"
)

func fetchErr(resource string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.FetchError{Resource: resource, Err: err}
}

func submitErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.SubmitError{Op: op, Err: err}
}

// --- Categories ---

// ListCategories returns every category including its field schema.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	page, err := listPage[domain.Category](ctx, c, "/categories", nil)
	if err != nil {
		return nil, fetchErr("categories", err)
	}
	return page.Items, nil
}

// GetCategory returns one category.
func (c *Client) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var cat domain.Category
	if err := c.getJSON(ctx, "/categories/"+url.PathEscape(id), nil, &cat); err != nil {
		return nil, fetchErr("category", err)
	}
	return &cat, nil
}

// CreateCategory creates a category with its field schema.
func (c *Client) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	var cat domain.Category
	if err := c.sendJSON(ctx, http.MethodPost, "/categories", in, &cat); err != nil {
		return nil, submitErr("create category", err)
	}
	return &cat, nil
}

// UpdateCategory replaces a category and its field schema.
func (c *Client) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	var cat domain.Category
	if err := c.sendJSON(ctx, http.MethodPut, "/categories/"+url.PathEscape(id), in, &cat); err != nil {
		return nil, submitErr("update category", err)
	}
	return &cat, nil
}

// DeleteCategory deletes a category. Stored product specifications are not
// touched.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return submitErr("delete category", c.sendJSON(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil))
}

// --- Brands ---

// ListBrands returns every brand.
func (c *Client) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	page, err := listPage[domain.Brand](ctx, c, "/brands", nil)
	if err != nil {
		return nil, fetchErr("brands", err)
	}
	return page.Items, nil
}

// GetBrand returns one brand.
func (c *Client) GetBrand(ctx context.Context, id string) (*domain.Brand, error) {
	var b domain.Brand
	if err := c.getJSON(ctx, "/brands/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, fetchErr("brand", err)
	}
	return &b, nil
}

// CreateBrand creates a brand.
func (c *Client) CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
	var b domain.Brand
	if err := c.sendJSON(ctx, http.MethodPost, "/brands", in, &b); err != nil {
		return nil, submitErr("create brand", err)
	}
	return &b, nil
}

// UpdateBrand updates a brand.
func (c *Client) UpdateBrand(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	var b domain.Brand
	if err := c.sendJSON(ctx, http.MethodPut, "/brands/"+url.PathEscape(id), in, &b); err != nil {
		return nil, submitErr("update brand", err)
	}
	return &b, nil
}

// DeleteBrand deletes a brand.
func (c *Client) DeleteBrand(ctx context.Context, id string) error {
	return submitErr("delete brand", c.sendJSON(ctx, http.MethodDelete, "/brands/"+url.PathEscape(id), nil, nil))
}

// --- Products ---

// ListProducts returns one page of products matching filter.
func (c *Client) ListProducts(ctx context.Context, p pagination.Params, filter domain.ProductFilter) (Page[domain.Product], error) {
	q := p.Encode(nil)
	for k, v := range map[string]string{
		"search":   filter.Search,
		"category": filter.CategoryID,
		"brand":    filter.BrandID,
		"status":   filter.Status,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}

	page, err := listPage[domain.Product](ctx, c, "/products", q)
	if err != nil {
		return Page[domain.Product]{}, fetchErr("products", err)
	}
	if page.Page == 0 {
		page.Page = p.Page
	}
	if page.PerPage == 0 {
		page.PerPage = p.PerPage
	}
	return page, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.getJSON(ctx, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, fetchErr("product", err)
	}
	return &p, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, in domain.ProductPayload) (*domain.Product, error) {
	var p domain.Product
	if err := c.sendJSON(ctx, http.MethodPost, "/products", in, &p); err != nil {
		return nil, submitErr("create product", err)
	}
	return &p, nil
}

// UpdateProduct replaces a product.
func (c *Client) UpdateProduct(ctx context.Context, id string, in domain.ProductPayload) (*domain.Product, error) {
	var p domain.Product
	if err := c.sendJSON(ctx, http.MethodPut, "/products/"+url.PathEscape(id), in, &p); err != nil {
		return nil, submitErr("update product", err)
	}
	return &p, nil
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return submitErr("delete product", c.sendJSON(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil))
}

// --- Reference data ---

// ListAgents returns delivery agents as the backend sends them.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	page, err := listPage[domain.Agent](ctx, c, "/agents", nil)
	if err != nil {
		return nil, fetchErr("agents", err)
	}
	return page.Items, nil
}

// ListPickupStations returns pickup stations as the backend sends them.
func (c *Client) ListPickupStations(ctx context.Context) ([]domain.PickupStation, error) {
	page, err := listPage[domain.PickupStation](ctx, c, "/pickup-stations", nil)
	if err != nil {
		return nil, fetchErr("pickup stations", err)
	}
	return page.Items, nil
}
