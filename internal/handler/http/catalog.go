package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/httputil"
	"github.com/utafrali/catalog-admin/pkg/pagination"
)

// CatalogHandler handles brands, the product list and the reference lists.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Brands ---

// ListBrands handles GET /api/v1/admin/brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.ListBrands(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: brands})
}

// CreateBrand handles POST /api/v1/admin/brands
func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req domain.BrandInput
	if !decodeJSON(w, r, &req, false) {
		return
	}

	brand, err := h.service.CreateBrand(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: brand})
}

// UpdateBrand handles PUT /api/v1/admin/brands/{id}
func (h *CatalogHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req domain.BrandInput
	if !decodeJSON(w, r, &req, false) {
		return
	}

	brand, err := h.service.UpdateBrand(r.Context(), id, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: brand})
}

// DeleteBrand handles DELETE /api/v1/admin/brands/{id}
func (h *CatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteBrand(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Products ---

// ListProducts handles GET /api/v1/admin/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Search:     q.Get("search"),
		CategoryID: q.Get("category_id"),
		BrandID:    q.Get("brand_id"),
		Status:     q.Get("status"),
	}

	page, err := h.service.ListProducts(r.Context(), params, filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(page.Items, page.TotalCount, page.Page, page.PerPage))
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Reference lists ---

// ListAgents handles GET /api/v1/admin/agents
func (h *CatalogHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.service.ListAgents(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: agents})
}

// ListPickupStations handles GET /api/v1/admin/pickup-stations
func (h *CatalogHandler) ListPickupStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.ListPickupStations(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stations})
}
