package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/httputil"
	"github.com/utafrali/catalog-admin/pkg/validator"
)

// CategoryHandler handles HTTP requests for categories and the category
// builder.
type CategoryHandler struct {
	catalog *service.CatalogService
	builder *service.CategoryBuilderService
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(catalog *service.CatalogService, builder *service.CategoryBuilderService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		catalog: catalog,
		builder: builder,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateCategoryDraftRequest opens a builder. CategoryID switches to edit
// mode.
type CreateCategoryDraftRequest struct {
	CategoryID string `json:"category_id"`
}

// MoveFieldRequest is the body of the move endpoint.
type MoveFieldRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// --- Categories ---

// ListCategories handles GET /api/v1/admin/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// GetCategory handles GET /api/v1/admin/categories/{id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}

// CategoryForm handles GET /api/v1/admin/categories/{id}/form
func (h *CategoryHandler) CategoryForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	form, err := h.catalog.CategoryForm(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: form})
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.builder.DeleteCategory(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Builder drafts ---

// CreateDraft handles POST /api/v1/admin/category-drafts
func (h *CategoryHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryDraftRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	view, err := h.builder.Create(r.Context(), req.CategoryID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: view})
}

// GetDraft handles GET /api/v1/admin/category-drafts/{id}
func (h *CategoryHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	view, err := h.builder.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// PatchInfo handles PATCH /api/v1/admin/category-drafts/{id}
func (h *CategoryHandler) PatchInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req service.CategoryInfoPatch
	if !decodeJSON(w, r, &req, false) {
		return
	}

	view, err := h.builder.PatchInfo(r.Context(), id, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// DiscardDraft handles DELETE /api/v1/admin/category-drafts/{id}
func (h *CategoryHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.builder.Discard(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddField handles POST /api/v1/admin/category-drafts/{id}/fields
func (h *CategoryHandler) AddField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	added, err := h.builder.AddField(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: added})
}

// PatchField handles PATCH /api/v1/admin/category-drafts/{id}/fields/{fieldId}
func (h *CategoryHandler) PatchField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	fieldID, ok := pathParam(w, r, "fieldId")
	if !ok {
		return
	}

	var req service.FieldPatch
	if !decodeJSON(w, r, &req, false) {
		return
	}

	view, err := h.builder.PatchField(r.Context(), id, fieldID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// RemoveField handles DELETE /api/v1/admin/category-drafts/{id}/fields/{fieldId}
func (h *CategoryHandler) RemoveField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	fieldID, ok := pathParam(w, r, "fieldId")
	if !ok {
		return
	}

	view, err := h.builder.RemoveField(r.Context(), id, fieldID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// MoveField handles POST /api/v1/admin/category-drafts/{id}/fields/{fieldId}/move
func (h *CategoryHandler) MoveField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	fieldID, ok := pathParam(w, r, "fieldId")
	if !ok {
		return
	}

	var req MoveFieldRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.builder.MoveField(r.Context(), id, fieldID, req.Direction)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Preview handles GET /api/v1/admin/category-drafts/{id}/preview
func (h *CategoryHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	fields, err := h.builder.Preview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: fields})
}

// Save handles POST /api/v1/admin/category-drafts/{id}/save
func (h *CategoryHandler) Save(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	category, err := h.builder.Save(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}
