package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/utafrali/catalog-admin/internal/backend"
	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/event"
	"github.com/utafrali/catalog-admin/internal/productform"
	"github.com/utafrali/catalog-admin/internal/session"
	"github.com/utafrali/catalog-admin/internal/upload"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
	"github.com/utafrali/catalog-admin/pkg/logger"
)

// DraftView is a product draft as returned to the client.
type DraftView struct {
	ID string `json:"id"`
	productform.Snapshot
}

// TagInput edits the tag list. Tag adds a tag directly; otherwise Input
// replaces the pending text and Key simulates a key press on it.
type TagInput struct {
	Tag   string  `json:"tag"`
	Input *string `json:"input"`
	Key   string  `json:"key"`
}

// ImageResult reports one file of an image batch.
type ImageResult struct {
	Filename string               `json:"filename"`
	Image    *domain.ProductImage `json:"image,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// ImagesResponse is the draft after an upload batch plus per-file outcomes.
type ImagesResponse struct {
	Draft   *DraftView    `json:"draft"`
	Results []ImageResult `json:"results"`
}

// SubmitResponse is returned by a successful submit. Draft is nil when the
// draft was discarded while the save was running.
type SubmitResponse struct {
	Product *domain.Product `json:"product"`
	Draft   *DraftView      `json:"draft"`
}

// ProductDraftService drives product forms held in draft sessions.
type ProductDraftService struct {
	drafts     session.Store[productform.Form]
	inflight   *session.Inflight
	supersede  *backend.Superseder
	refs       ReferenceData
	products   ProductBackend
	images     upload.Store
	uploadOpts upload.Options
	producer   *event.Producer
	formOpts   productform.Options
	logger     *slog.Logger
}

// ProductDraftDeps bundles the collaborators of ProductDraftService.
type ProductDraftDeps struct {
	Drafts        session.Store[productform.Form]
	Inflight      *session.Inflight
	Supersede     *backend.Superseder
	Refs          ReferenceData
	Products      ProductBackend
	Images        upload.Store
	UploadOptions upload.Options
	Producer      *event.Producer
	FormOptions   productform.Options
}

// NewProductDraftService creates a new product draft service.
func NewProductDraftService(deps ProductDraftDeps, logger *slog.Logger) *ProductDraftService {
	if deps.Inflight == nil {
		deps.Inflight = session.NewInflight()
	}
	if deps.Supersede == nil {
		deps.Supersede = backend.NewSuperseder()
	}
	return &ProductDraftService{
		drafts:     deps.Drafts,
		inflight:   deps.Inflight,
		supersede:  deps.Supersede,
		refs:       deps.Refs,
		products:   deps.Products,
		images:     deps.Images,
		uploadOpts: deps.UploadOptions,
		producer:   deps.Producer,
		formOpts:   deps.FormOptions,
		logger:     logger,
	}
}

// Create opens a draft. With a product ID the draft edits that product and
// is seeded from the backend.
func (s *ProductDraftService) Create(ctx context.Context, productID string) (*DraftView, error) {
	form := productform.New(s.formOpts)

	if productID != "" {
		product, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		var category *domain.Category
		if product.CategoryID != "" {
			category, err = s.refs.GetCategory(ctx, product.CategoryID)
			if err != nil {
				return nil, err
			}
		}
		form.LoadProduct(product, category)
	}

	id, err := s.drafts.Create(ctx, *form)
	if err != nil {
		return nil, fmt.Errorf("create product draft: %w", err)
	}

	s.logger.InfoContext(logger.WithDraftID(ctx, id), "product draft opened",
		slog.String("product_id", productID),
	)
	return s.view(id, form), nil
}

// Get returns a draft.
func (s *ProductDraftService) Get(ctx context.Context, id string) (*DraftView, error) {
	form, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(id, &form), nil
}

// Patch applies field edits. Valid edits are kept even when some
// specification values are rejected; the rejection is returned as a
// validation error and recorded on the draft.
func (s *ProductDraftService) Patch(ctx context.Context, id string, patch productform.Patch) (*DraftView, error) {
	ctx = logger.WithDraftID(ctx, id)

	var category *domain.Category
	if patch.CategoryID != nil && *patch.CategoryID != "" {
		var err error
		category, err = s.resolveCategory(ctx, id, *patch.CategoryID)
		if err != nil {
			return nil, err
		}
	}

	var applyErr error
	form, err := s.drafts.Update(ctx, id, func(f *productform.Form) error {
		if patch.CategoryID != nil {
			f.SelectCategory(category)
		}
		applyErr = f.Apply(patch)
		var appErr *apperrors.AppError
		if errors.As(applyErr, &appErr) && len(appErr.Fields) > 0 {
			if f.Errors == nil {
				f.Errors = make(map[string]string)
			}
			maps.Copy(f.Errors, appErr.Fields)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(id, &form), applyErr
}

// resolveCategory loads a category for a draft. A newer selection on the
// same draft cancels an older one still loading, and discarding the draft
// cancels both.
func (s *ProductDraftService) resolveCategory(ctx context.Context, draftID, categoryID string) (*domain.Category, error) {
	ctx, untrack := s.inflight.Track(ctx, draftID)
	defer untrack()
	ctx, done := s.supersede.Begin(ctx, draftID+":category")
	defer done()

	category, err := s.refs.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Tags applies a tag edit.
func (s *ProductDraftService) Tags(ctx context.Context, id string, in TagInput) (*DraftView, error) {
	form, err := s.drafts.Update(ctx, id, func(f *productform.Form) error {
		if in.Tag != "" {
			f.AddTag(in.Tag)
			return nil
		}
		if in.Input != nil {
			f.SetTagInput(*in.Input)
		}
		if in.Key != "" {
			f.TagKeyPressed(in.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(id, &form), nil
}

// RemoveTag drops a tag.
func (s *ProductDraftService) RemoveTag(ctx context.Context, id, tag string) (*DraftView, error) {
	form, err := s.drafts.Update(ctx, id, func(f *productform.Form) error {
		f.RemoveTag(tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(id, &form), nil
}

// UploadImages uploads a batch and appends the stored images to the draft
// in file order. Failed files are reported per file and never abort the
// rest of the batch.
func (s *ProductDraftService) UploadImages(ctx context.Context, id string, files []upload.File) (*ImagesResponse, error) {
	ctx = logger.WithDraftID(ctx, id)
	if _, err := s.drafts.Get(ctx, id); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.InvalidInput("at least one image is required")
	}

	trackCtx, untrack := s.inflight.Track(ctx, id)
	results := upload.Batch(trackCtx, s.images, files, s.uploadOpts, s.logger)
	untrack()

	uploaded := upload.Succeeded(results)
	form, err := s.drafts.Update(ctx, id, func(f *productform.Form) error {
		f.AddImages(uploaded...)
		return nil
	})
	if err != nil {
		// The draft went away mid-batch; nothing references these anymore.
		for _, img := range uploaded {
			productform.DeleteRemoteImage(background(ctx), s.images, img, s.logger)
		}
		return nil, err
	}

	out := make([]ImageResult, len(results))
	for i, r := range results {
		out[i].Filename = r.Filename
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		img := r.Asset
		out[i].Image = &img
	}

	return &ImagesResponse{Draft: s.view(id, &form), Results: out}, nil
}

// RemoveImage drops the image at idx. The stored asset is deleted on a best
// effort basis; the draft loses the image either way.
func (s *ProductDraftService) RemoveImage(ctx context.Context, id string, idx int) (*DraftView, error) {
	var removed domain.ProductImage
	form, err := s.drafts.Update(ctx, id, func(f *productform.Form) error {
		img, err := f.RemoveImage(idx)
		if err != nil {
			return err
		}
		removed = img
		return nil
	})
	if err != nil {
		return nil, err
	}

	productform.DeleteRemoteImage(logger.WithDraftID(ctx, id), s.images, removed, s.logger)
	return s.view(id, &form), nil
}

// Submit validates the draft and saves it through the backend. The draft is
// marked busy in the session before the backend call so a second submit on
// any replica is rejected until the first completes.
func (s *ProductDraftService) Submit(ctx context.Context, id string) (*SubmitResponse, error) {
	ctx = logger.WithDraftID(ctx, id)

	var (
		payload   domain.ProductPayload
		beginErr  error
		productID string
		deadline  time.Duration
	)
	form, err := s.drafts.Update(ctx, id, func(f *productform.Form) error {
		payload, beginErr = f.BeginSubmit()
		productID = f.ProductID
		deadline = f.Options.SubmitDeadline()
		return nil
	})
	if err != nil {
		return nil, err
	}

	mode := productform.ModeCreate
	if productID != "" {
		mode = productform.ModeEdit
	}
	if beginErr != nil {
		result := "invalid"
		if errors.Is(beginErr, productform.ErrSubmitInProgress) {
			result = "busy"
		}
		submitsTotal.WithLabelValues(mode, result).Inc()
		return nil, beginErr
	}

	// The busy mark lapses after deadline, so the call must not outlive it.
	callCtx, untrack := s.inflight.Track(ctx, id)
	callCtx, cancelCall := context.WithTimeout(callCtx, deadline)
	op := "create product"
	var saved *domain.Product
	if productID != "" {
		op = "update product"
		saved, err = s.products.UpdateProduct(callCtx, productID, payload)
	} else {
		saved, err = s.products.CreateProduct(callCtx, payload)
	}
	cancelCall()
	untrack()
	callErr := err

	var view *DraftView
	form, err = s.drafts.Update(background(ctx), id, func(f *productform.Form) error {
		f.CompleteSubmit(saved, callErr)
		return nil
	})
	switch {
	case err == nil:
		view = s.view(id, &form)
	case !errors.Is(err, apperrors.ErrNotFound):
		s.logger.ErrorContext(ctx, "failed to record submit outcome",
			slog.String("error", err.Error()),
		)
	}

	if callErr != nil {
		submitsTotal.WithLabelValues(mode, "failed").Inc()
		var se *domain.SubmitError
		if errors.As(callErr, &se) {
			return nil, callErr
		}
		return nil, &domain.SubmitError{Op: op, Err: callErr}
	}
	submitsTotal.WithLabelValues(mode, "success").Inc()

	if err := s.producer.PublishProductSubmitted(ctx, saved, mode); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product submitted event",
			slog.String("product_id", saved.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product saved",
		slog.String("product_id", saved.ID),
		slog.String("mode", mode),
	)
	return &SubmitResponse{Product: saved, Draft: view}, nil
}

// Discard aborts any work still running for the draft and deletes it.
func (s *ProductDraftService) Discard(ctx context.Context, id string) error {
	if n := s.inflight.Cancel(id); n > 0 {
		s.logger.InfoContext(logger.WithDraftID(ctx, id), "cancelled in-flight draft work",
			slog.Int("count", n),
		)
	}
	return s.drafts.Delete(ctx, id)
}

func (s *ProductDraftService) view(id string, f *productform.Form) *DraftView {
	return &DraftView{ID: id, Snapshot: f.Snapshot(s.logger)}
}
