package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/event"
	"github.com/utafrali/catalog-admin/internal/productform"
	"github.com/utafrali/catalog-admin/internal/session"
	"github.com/utafrali/catalog-admin/internal/specform"
	"github.com/utafrali/catalog-admin/internal/upload"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

type draftFixture struct {
	svc      *ProductDraftService
	refs     *mockRefs
	backend  *mockBackend
	images   *upload.MemoryStore
	drafts   *session.MemoryStore[productform.Form]
	events   *recordingPublisher
	inflight *session.Inflight
}

func newDraftFixture(t *testing.T) *draftFixture {
	t.Helper()
	logger := newTestLogger()
	f := &draftFixture{
		refs:     new(mockRefs),
		backend:  new(mockBackend),
		images:   upload.NewMemoryStore("http://media.test"),
		drafts:   session.NewMemoryStore[productform.Form]("product draft", time.Hour),
		events:   &recordingPublisher{},
		inflight: session.NewInflight(),
	}
	f.svc = NewProductDraftService(ProductDraftDeps{
		Drafts:        f.drafts,
		Inflight:      f.inflight,
		Refs:          f.refs,
		Products:      f.backend,
		Images:        f.images,
		UploadOptions: upload.DefaultOptions(),
		Producer:      event.NewProducer(f.events, logger),
		FormOptions:   productform.DefaultOptions(),
	}, logger)
	return f
}

func imageFile(name, contentType string) upload.File {
	return upload.File{
		Filename:    name,
		ContentType: contentType,
		Size:        4,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("DATA")), nil
		},
	}
}

// fillValid brings a fresh draft to a submittable state under the laptop
// category.
func (f *draftFixture) fillValid(t *testing.T, id string) {
	t.Helper()
	f.refs.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)
	_, err := f.svc.Patch(context.Background(), id, productform.Patch{
		Name:       ptr("ThinkPad X1"),
		Price:      ptr(domain.NumericInput("1999.9")),
		Stock:      ptr(domain.NumericInput("5")),
		BrandID:    ptr("brand-lenovo"),
		CategoryID: ptr("cat-laptops"),
		Specifications: map[string]any{
			"ram":   "16GB",
			"ports": map[string]any{"add": "USB-C"},
		},
	})
	require.NoError(t, err)
}

// ============================================================================
// Create / Get
// ============================================================================

func TestCreate_NewDraft(t *testing.T) {
	f := newDraftFixture(t)

	view, err := f.svc.Create(context.Background(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, productform.ModeCreate, view.Mode)
	assert.Equal(t, domain.ProductStatusDraft, view.Draft.Status)
	assert.True(t, view.Specs.Empty)
	assert.Equal(t, specform.NoFieldsNotice, view.Specs.Notice)
}

func TestCreate_EditSeedsFromProduct(t *testing.T) {
	f := newDraftFixture(t)
	f.backend.On("GetProduct", mock.Anything, "p1").Return(&domain.Product{
		ID: "p1", Name: "ThinkPad", Slug: "thinkpad-custom", Price: 1500, CategoryID: "cat-laptops",
		Specifications: domain.Specifications{"ram": "8GB", "legacy": "kept"},
	}, nil)
	f.refs.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)

	view, err := f.svc.Create(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, productform.ModeEdit, view.Mode)
	assert.True(t, view.SlugEdited)
	assert.Equal(t, domain.NumericInput("1500"), view.Draft.Price)
	assert.Equal(t, "kept", view.Draft.Specifications["legacy"])
	require.Len(t, view.Specs.Fields, 4)
	assert.Equal(t, "8GB", view.Specs.Fields[0].Value)

	got, err := f.svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ProductID)
}

func TestCreate_ProductFetchFails(t *testing.T) {
	f := newDraftFixture(t)
	f.backend.On("GetProduct", mock.Anything, "gone").
		Return(nil, &domain.FetchError{Resource: "product", Err: apperrors.NotFound("product", "gone")})

	_, err := f.svc.Create(context.Background(), "gone")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, f.drafts.Len())
}

func TestGet_Unknown(t *testing.T) {
	f := newDraftFixture(t)
	_, err := f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================================
// Patch
// ============================================================================

func TestPatch_NameDerivesSlugAndCategoryRendersFields(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.refs.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)

	got, err := f.svc.Patch(context.Background(), view.ID, productform.Patch{
		Name:       ptr("Men's Running Shoes!!"),
		CategoryID: ptr("cat-laptops"),
	})
	require.NoError(t, err)

	assert.Equal(t, "mens-running-shoes", got.Draft.Slug)
	assert.Equal(t, "cat-laptops", got.Specs.CategoryID)
	assert.False(t, got.Specs.Empty)
	require.Len(t, got.Specs.Fields, 4)
	assert.Equal(t, "ram", got.Specs.Fields[0].Key)
}

func TestPatch_UnknownSpecKeepsOtherEdits(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.refs.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)

	_, err := f.svc.Patch(context.Background(), view.ID, productform.Patch{
		Name:           ptr("ThinkPad"),
		CategoryID:     ptr("cat-laptops"),
		Specifications: map[string]any{"colour": "red", "ram": "16GB"},
	})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "spec_colour")

	got, err := f.svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad", got.Draft.Name)
	assert.Equal(t, "16GB", got.Draft.Specifications["ram"])
	assert.Contains(t, got.Errors, "spec_colour")
}

func TestPatch_SwitchingCategoryResetsSpecifications(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)
	f.refs.On("GetCategory", mock.Anything, "cat-shoes").Return(&domain.Category{ID: "cat-shoes", Name: "Shoes"}, nil)

	got, err := f.svc.Patch(context.Background(), view.ID, productform.Patch{CategoryID: ptr("cat-shoes")})
	require.NoError(t, err)
	assert.Empty(t, got.Draft.Specifications)
	assert.True(t, got.Specs.Empty)
}

func TestPatch_CategoryFetchErrorLeavesDraft(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.refs.On("GetCategory", mock.Anything, "cat-x").
		Return(nil, &domain.FetchError{Resource: "category", Err: apperrors.Unavailable("backend down")})

	_, err := f.svc.Patch(context.Background(), view.ID, productform.Patch{
		Name: ptr("changed"), CategoryID: ptr("cat-x"),
	})
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))

	got, _ := f.svc.Get(context.Background(), view.ID)
	assert.Empty(t, got.Draft.Name)
}

func TestPatch_ClearingCategory(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)

	got, err := f.svc.Patch(context.Background(), view.ID, productform.Patch{CategoryID: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, got.Draft.CategoryID)
	assert.True(t, got.Specs.Empty)
}

// ============================================================================
// Tags
// ============================================================================

func TestTags(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	ctx := context.Background()

	got, err := f.svc.Tags(ctx, view.ID, TagInput{Input: ptr("  laptop "), Key: "Enter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"laptop"}, got.Draft.Tags)
	assert.Empty(t, got.TagInput)

	got, err = f.svc.Tags(ctx, view.ID, TagInput{Input: ptr("ultrabook,"), Key: ","})
	require.NoError(t, err)
	assert.Equal(t, []string{"laptop", "ultrabook"}, got.Draft.Tags)

	got, err = f.svc.Tags(ctx, view.ID, TagInput{Tag: "laptop"})
	require.NoError(t, err)
	assert.Len(t, got.Draft.Tags, 2, "duplicates are ignored")

	got, err = f.svc.Tags(ctx, view.ID, TagInput{Input: ptr("pending"), Key: "a"})
	require.NoError(t, err)
	assert.Equal(t, "pending", got.TagInput)

	got, err = f.svc.RemoveTag(ctx, view.ID, "laptop")
	require.NoError(t, err)
	assert.Equal(t, []string{"ultrabook"}, got.Draft.Tags)
}

// ============================================================================
// Images
// ============================================================================

func TestUploadImages_PerFileResults(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")

	res, err := f.svc.UploadImages(context.Background(), view.ID, []upload.File{
		imageFile("front.jpg", "image/jpeg"),
		imageFile("specs.pdf", "application/pdf"),
		imageFile("back.png", "image/png"),
	})
	require.NoError(t, err)

	require.Len(t, res.Results, 3)
	assert.NotNil(t, res.Results[0].Image)
	assert.NotEmpty(t, res.Results[1].Error)
	assert.Nil(t, res.Results[1].Image)
	assert.NotNil(t, res.Results[2].Image)

	require.Len(t, res.Draft.Draft.Images, 2)
	assert.Equal(t, res.Results[0].Image.URL, res.Draft.Draft.Images[0].URL)
	assert.Equal(t, 2, f.images.Len())
	assert.Equal(t, 0, f.inflight.Len())
}

func TestUploadImages_Validation(t *testing.T) {
	f := newDraftFixture(t)
	_, err := f.svc.UploadImages(context.Background(), "missing", []upload.File{imageFile("a.png", "image/png")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	view, _ := f.svc.Create(context.Background(), "")
	_, err = f.svc.UploadImages(context.Background(), view.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRemoveImage_DeletesRemoteAsset(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	_, err := f.svc.UploadImages(context.Background(), view.ID, []upload.File{
		imageFile("a.png", "image/png"), imageFile("b.png", "image/png"),
	})
	require.NoError(t, err)

	got, err := f.svc.RemoveImage(context.Background(), view.ID, 0)
	require.NoError(t, err)
	assert.Len(t, got.Draft.Images, 1)
	assert.Equal(t, 1, f.images.Len())

	_, err = f.svc.RemoveImage(context.Background(), view.ID, 5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRemoveImage_RemoteFailureStillRemovesLocally(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	_, err := f.drafts.Update(context.Background(), view.ID, func(form *productform.Form) error {
		form.AddImages(domain.ProductImage{URL: "https://cdn/x.png", PublicID: "not-in-store"})
		return nil
	})
	require.NoError(t, err)

	got, err := f.svc.RemoveImage(context.Background(), view.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got.Draft.Images)
}

// ============================================================================
// Submit
// ============================================================================

func TestSubmit_InvalidNeverCallsBackend(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")

	_, err := f.svc.Submit(context.Background(), view.ID)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, productform.MsgNameRequired, appErr.Fields["name"])
	assert.Equal(t, productform.MsgPricePositive, appErr.Fields["price"])
	f.backend.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)

	got, _ := f.svc.Get(context.Background(), view.ID)
	assert.Equal(t, productform.StateInvalid, got.State)
	assert.Equal(t, productform.MsgCategoryRequired, got.Errors["category"])
}

func TestSubmit_RequiredSpecification(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)
	_, err := f.svc.Patch(context.Background(), view.ID, productform.Patch{
		Specifications: map[string]any{"ram": ""},
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), view.ID)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RAM is required", appErr.Fields["spec_ram"])
}

func TestSubmit_CreateSuccess(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)

	var sent domain.ProductPayload
	f.backend.On("CreateProduct", mock.Anything, mock.AnythingOfType("domain.ProductPayload")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(domain.ProductPayload) }).
		Return(&domain.Product{ID: "p-new", Name: "ThinkPad X1", CategoryID: "cat-laptops"}, nil)

	res, err := f.svc.Submit(context.Background(), view.ID)
	require.NoError(t, err)

	assert.Equal(t, "p-new", res.Product.ID)
	assert.Equal(t, 1999.9, sent.Price)
	assert.Equal(t, 5, sent.Stock)
	assert.Equal(t, "thinkpad-x1", sent.Slug)
	assert.Equal(t, domain.Specifications{
		"ram":         "16GB",
		"ports":       []string{"USB-C"},
		"touchscreen": false,
	}, sent.Specifications)

	require.NotNil(t, res.Draft)
	assert.Equal(t, productform.StateSuccess, res.Draft.State)
	assert.Equal(t, "p-new", res.Draft.ProductID)
	assert.Equal(t, []string{event.TopicProductSubmitted}, f.events.Topics())
}

func TestSubmit_EditUsesUpdate(t *testing.T) {
	f := newDraftFixture(t)
	f.backend.On("GetProduct", mock.Anything, "p1").Return(&domain.Product{
		ID: "p1", Name: "Old", Slug: "old", Price: 10, Stock: 1, BrandID: "b1", CategoryID: "cat-laptops",
		Specifications: domain.Specifications{"ram": "8GB"},
	}, nil)
	f.refs.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)
	view, err := f.svc.Create(context.Background(), "p1")
	require.NoError(t, err)

	f.backend.On("UpdateProduct", mock.Anything, "p1", mock.Anything).Return(&domain.Product{ID: "p1"}, nil)

	_, err = f.svc.Submit(context.Background(), view.ID)
	require.NoError(t, err)
	f.backend.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestSubmit_BackendFailurePreservesDraft(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)

	rejected := &domain.SubmitError{Op: "create product", Err: apperrors.Validation(map[string]string{"slug": "Slug is already taken"})}
	f.backend.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, rejected)

	_, err := f.svc.Submit(context.Background(), view.ID)
	var se *domain.SubmitError
	require.True(t, errors.As(err, &se))

	got, _ := f.svc.Get(context.Background(), view.ID)
	assert.Equal(t, productform.StateFailed, got.State)
	assert.NotEmpty(t, got.SubmitError)
	assert.Equal(t, "Slug is already taken", got.Errors["slug"])
	assert.Equal(t, "ThinkPad X1", got.Draft.Name)
	assert.Empty(t, f.events.Topics())
}

func TestSubmit_BusyGuard(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	_, err := f.drafts.Update(context.Background(), view.ID, func(form *productform.Form) error {
		form.State = productform.StateSubmitting
		form.SubmitStartedAt = time.Now()
		return nil
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), view.ID)
	assert.ErrorIs(t, err, productform.ErrSubmitInProgress)

	got, _ := f.svc.Get(context.Background(), view.ID)
	assert.True(t, got.Busy)
}

// outcomeLossStore fails every Update after the first okUpdates calls, the
// way the redis driver does when WATCH keeps losing.
type outcomeLossStore struct {
	session.Store[productform.Form]
	okUpdates int
}

func (s *outcomeLossStore) Update(ctx context.Context, id string, fn func(*productform.Form) error) (productform.Form, error) {
	if s.okUpdates == 0 {
		return productform.Form{}, apperrors.Conflict("draft was modified concurrently, retry the request")
	}
	s.okUpdates--
	return s.Store.Update(ctx, id, fn)
}

func TestSubmit_LostOutcomeDoesNotLockDraft(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)
	f.backend.On("CreateProduct", mock.Anything, mock.Anything).
		Return(nil, apperrors.Unavailable("catalog backend unavailable")).Once()

	// Mark busy succeeds, recording the outcome does not.
	f.svc.drafts = &outcomeLossStore{Store: f.drafts, okUpdates: 1}
	_, err := f.svc.Submit(context.Background(), view.ID)
	require.Error(t, err)
	f.svc.drafts = f.drafts

	got, _ := f.svc.Get(context.Background(), view.ID)
	require.True(t, got.Busy, "outcome was never written")

	_, err = f.svc.Submit(context.Background(), view.ID)
	assert.ErrorIs(t, err, productform.ErrSubmitInProgress)

	// Once the submit timeout has passed the mark no longer blocks.
	_, err = f.drafts.Update(context.Background(), view.ID, func(form *productform.Form) error {
		form.SubmitStartedAt = time.Now().Add(-form.Options.SubmitDeadline() - time.Second)
		return nil
	})
	require.NoError(t, err)

	f.backend.On("CreateProduct", mock.Anything, mock.Anything).Return(&domain.Product{ID: "p9"}, nil).Once()
	res, err := f.svc.Submit(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "p9", res.Product.ID)
	assert.False(t, res.Draft.Busy)
}

func TestSubmit_BackendCallBoundedBySubmitTimeout(t *testing.T) {
	f := newDraftFixture(t)
	f.svc.formOpts.SubmitTimeout = 50 * time.Millisecond
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)

	f.backend.On("CreateProduct", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()

	_, err := f.svc.Submit(context.Background(), view.ID)
	require.Error(t, err)

	got, _ := f.svc.Get(context.Background(), view.ID)
	assert.Equal(t, productform.StateFailed, got.State)
	assert.False(t, got.Busy)
}

func TestSubmit_EventFailureDoesNotFailSave(t *testing.T) {
	f := newDraftFixture(t)
	f.events.err = errors.New("broker down")
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)
	f.backend.On("CreateProduct", mock.Anything, mock.Anything).Return(&domain.Product{ID: "p2"}, nil)

	res, err := f.svc.Submit(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "p2", res.Product.ID)
}

// ============================================================================
// Discard
// ============================================================================

func TestDiscard_CancelsInFlightSubmit(t *testing.T) {
	f := newDraftFixture(t)
	view, _ := f.svc.Create(context.Background(), "")
	f.fillValid(t, view.ID)

	started := make(chan struct{})
	f.backend.On("CreateProduct", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled)

	errCh := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(context.Background(), view.ID)
		errCh <- err
	}()

	<-started
	require.NoError(t, f.svc.Discard(context.Background(), view.ID))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("submit was not cancelled")
	}

	_, err := f.svc.Get(context.Background(), view.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDiscard_Unknown(t *testing.T) {
	f := newDraftFixture(t)
	assert.ErrorIs(t, f.svc.Discard(context.Background(), "nope"), apperrors.ErrNotFound)
}
