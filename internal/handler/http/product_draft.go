package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/catalog-admin/internal/productform"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/internal/upload"
	"github.com/utafrali/catalog-admin/pkg/httputil"
)

const (
	maxImagesPerBatch = 20
	imagesFormField   = "images"
)

// ProductDraftHandler handles HTTP requests for product draft endpoints.
type ProductDraftHandler struct {
	service        *service.ProductDraftService
	uploadMaxBytes int64
	logger         *slog.Logger
}

// NewProductDraftHandler creates a new product draft HTTP handler.
func NewProductDraftHandler(svc *service.ProductDraftService, uploadMaxBytes int64, logger *slog.Logger) *ProductDraftHandler {
	if uploadMaxBytes <= 0 {
		uploadMaxBytes = upload.MaxFileSize
	}
	return &ProductDraftHandler{
		service:        svc,
		uploadMaxBytes: uploadMaxBytes,
		logger:         logger,
	}
}

// --- Request DTOs ---

// CreateProductDraftRequest opens a draft. ProductID switches to edit mode.
type CreateProductDraftRequest struct {
	ProductID string `json:"product_id"`
}

// --- Handlers ---

// Create handles POST /api/v1/admin/product-drafts
func (h *ProductDraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductDraftRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	view, err := h.service.Create(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: view})
}

// Get handles GET /api/v1/admin/product-drafts/{id}
func (h *ProductDraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Patch handles PATCH /api/v1/admin/product-drafts/{id}
//
// Rejected specification values come back as a 422 that still carries the
// updated draft, since the other edits in the patch were applied.
func (h *ProductDraftHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var patch productform.Patch
	if !decodeJSON(w, r, &patch, false) {
		return
	}

	view, err := h.service.Patch(r.Context(), id, patch)
	switch {
	case err != nil && view != nil:
		writePartial(w, r, view, err)
	case err != nil:
		httputil.WriteError(w, r, err, h.logger)
	default:
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
	}
}

// AddTag handles POST /api/v1/admin/product-drafts/{id}/tags
func (h *ProductDraftHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req service.TagInput
	if !decodeJSON(w, r, &req, false) {
		return
	}

	view, err := h.service.Tags(r.Context(), id, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// RemoveTag handles DELETE /api/v1/admin/product-drafts/{id}/tags/{tag}
func (h *ProductDraftHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	tag, ok := pathParam(w, r, "tag")
	if !ok {
		return
	}

	view, err := h.service.RemoveTag(r.Context(), id, tag)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// UploadImages handles POST /api/v1/admin/product-drafts/{id}/images
//
// The body is multipart/form-data with one or more "images" parts. Each
// file succeeds or fails on its own.
func (h *ProductDraftHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes*maxImagesPerBatch+maxJSONBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		httputil.WriteJSON(w, status, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart body: " + err.Error()},
		})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[imagesFormField]
	if len(headers) > maxImagesPerBatch {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "too many images in one request"},
		})
		return
	}

	files := make([]upload.File, len(headers))
	for i, hdr := range headers {
		files[i] = upload.FromMultipart(hdr)
	}

	res, err := h.service.UploadImages(r.Context(), id, files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	failed := 0
	for _, fr := range res.Results {
		if fr.Error != "" {
			failed++
		}
	}
	h.logger.InfoContext(r.Context(), "image batch processed",
		slog.String("draft_id", id),
		slog.Int("files", len(files)),
		slog.Int("failed", failed),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// RemoveImage handles DELETE /api/v1/admin/product-drafts/{id}/images/{index}
func (h *ProductDraftHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	raw, ok := pathParam(w, r, "index")
	if !ok {
		return
	}
	idx, ok := httputil.ParseIndex(w, "image index", raw)
	if !ok {
		return
	}

	view, err := h.service.RemoveImage(r.Context(), id, idx)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Submit handles POST /api/v1/admin/product-drafts/{id}/submit
func (h *ProductDraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	res, err := h.service.Submit(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Discard handles DELETE /api/v1/admin/product-drafts/{id}
func (h *ProductDraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Discard(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
