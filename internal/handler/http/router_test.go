package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/internal/backend"
	"github.com/utafrali/catalog-admin/internal/builder"
	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/event"
	"github.com/utafrali/catalog-admin/internal/productform"
	"github.com/utafrali/catalog-admin/internal/refdata"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/internal/session"
	"github.com/utafrali/catalog-admin/internal/upload"
	"github.com/utafrali/catalog-admin/pkg/health"
	"github.com/utafrali/catalog-admin/pkg/httputil"
	"github.com/utafrali/catalog-admin/pkg/middleware"
	"github.com/utafrali/catalog-admin/pkg/pagination"
)

const testSecret = "test-secret"

// ============================================================================
// Mock catalog backend
// ============================================================================

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockBackend) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
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

func (m *mockBackend) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Brand), args.Error(1)
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

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testServer struct {
	handler http.Handler
	backend *mockBackend
	images  *upload.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := testLogger()
	be := new(mockBackend)
	images := upload.NewMemoryStore("http://media.test")
	refs := refdata.NewService(be, nil, 0, logger)
	producer := event.NewProducer(nil, logger)

	svcs := Services{
		ProductDrafts: service.NewProductDraftService(service.ProductDraftDeps{
			Drafts:        session.NewMemoryStore[productform.Form]("product draft", time.Hour),
			Refs:          refs,
			Products:      be,
			Images:        images,
			UploadOptions: upload.DefaultOptions(),
			Producer:      producer,
			FormOptions:   productform.DefaultOptions(),
		}, logger),
		Categories: service.NewCategoryBuilderService(
			session.NewMemoryStore[service.CategoryDraft]("category draft", time.Hour),
			refs, be, producer, logger,
		),
		Catalog: service.NewCatalogService(refs, be, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewRouter(ctx, svcs, health.NewHandler(), RouterConfig{
		JWTSecret:      testSecret,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, logger)
	return &testServer{handler: h, backend: be, images: images}
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: "admin-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a JSON request as an admin. A nil body sends no body.
func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token(t, AdminRole))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// decodeData decodes the envelope and unmarshals data into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) *httputil.ErrorResponse {
	t.Helper()
	var env struct {
		Data  json.RawMessage         `json:"data"`
		Error *httputil.ErrorResponse `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	if dst != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env.Error
}

func laptopCategory() *domain.Category {
	return &domain.Category{
		ID:   "cat-laptops",
		Name: "Laptops",
		CustomFields: []domain.CustomFieldSchema{
			{Key: "ram", Label: "RAM", InputType: domain.InputSelect, Options: []string{"8GB", "16GB"}, Required: true, Order: 1},
			{Key: "touchscreen", Label: "Touchscreen", InputType: domain.InputBoolean, Order: 2},
		},
	}
}

// ============================================================================
// Auth and health
// ============================================================================

func TestHealthLive_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutes_RequireAdminToken(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/brands", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/brands", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "customer"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.backend.AssertNotCalled(t, "ListBrands", mock.Anything)
}

func TestAdminRoutes_NoStore(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("ListBrands", mock.Anything).Return([]domain.Brand{{ID: "b1", Name: "Acme"}}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/brands", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

// ============================================================================
// Product drafts
// ============================================================================

func createProductDraft(t *testing.T, s *testServer) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/admin/product-drafts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view service.DraftView
	decodeData(t, rec, &view)
	require.NotEmpty(t, view.ID)
	return view.ID
}

func TestProductDraft_PatchAndPartialFailure(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)
	id := createProductDraft(t, s)

	rec := s.do(t, http.MethodPatch, "/api/v1/admin/product-drafts/"+id, map[string]any{
		"name":       "ThinkPad X1",
		"categoryId": "cat-laptops",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.DraftView
	decodeData(t, rec, &view)
	assert.Equal(t, "thinkpad-x1", view.Draft.Slug)
	assert.Len(t, view.Specs.Fields, 2)

	rec = s.do(t, http.MethodPatch, "/api/v1/admin/product-drafts/"+id, map[string]any{
		"price":          "12.50",
		"specifications": map[string]any{"colour": "red"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errResp := decodeData(t, rec, &view)
	require.NotNil(t, errResp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Fields, "spec_colour")
	assert.Equal(t, domain.NumericInput("12.50"), view.Draft.Price)
}

func TestProductDraft_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	id := createProductDraft(t, s)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/product-drafts/"+id, bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token(t, AdminRole))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductDraft_Tags(t *testing.T) {
	s := newTestServer(t)
	id := createProductDraft(t, s)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/product-drafts/"+id+"/tags", map[string]any{"tag": "summer sale"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/admin/product-drafts/"+id+"/tags/summer%20sale", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.DraftView
	decodeData(t, rec, &view)
	assert.Empty(t, view.Draft.Tags)
}

func TestProductDraft_UploadImages(t *testing.T) {
	s := newTestServer(t)
	id := createProductDraft(t, s)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"front.png", "manual.pdf", "back.png"} {
		part, err := mw.CreateFormFile(imagesFormField, name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("file contents"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/product-drafts/"+id+"/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, AdminRole))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res service.ImagesResponse
	decodeData(t, rec, &res)
	require.Len(t, res.Results, 3)
	assert.Empty(t, res.Results[0].Error)
	assert.NotEmpty(t, res.Results[1].Error)
	assert.Len(t, res.Draft.Draft.Images, 2)
	assert.Equal(t, 2, s.images.Len())

	rec = s.do(t, http.MethodDelete, "/api/v1/admin/product-drafts/"+id+"/images/x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/admin/product-drafts/"+id+"/images/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.images.Len())
}

func TestProductDraft_UploadRequiresMultipart(t *testing.T) {
	s := newTestServer(t)
	id := createProductDraft(t, s)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/product-drafts/"+id+"/images", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductDraft_SubmitInvalidThenDiscard(t *testing.T) {
	s := newTestServer(t)
	id := createProductDraft(t, s)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/product-drafts/"+id+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errResp := decodeData(t, rec, nil)
	require.NotNil(t, errResp)
	assert.Equal(t, productform.MsgNameRequired, errResp.Fields["name"])
	s.backend.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)

	rec = s.do(t, http.MethodDelete, "/api/v1/admin/product-drafts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/product-drafts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductDraft_SubmitSuccess(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)
	s.backend.On("CreateProduct", mock.Anything, mock.Anything).Return(&domain.Product{ID: "p-1"}, nil)
	id := createProductDraft(t, s)

	rec := s.do(t, http.MethodPatch, "/api/v1/admin/product-drafts/"+id, map[string]any{
		"name":           "ThinkPad X1",
		"price":          1999,
		"brandId":        "brand-1",
		"categoryId":     "cat-laptops",
		"specifications": map[string]any{"ram": "16GB"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/product-drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res service.SubmitResponse
	decodeData(t, rec, &res)
	assert.Equal(t, "p-1", res.Product.ID)
	require.NotNil(t, res.Draft)
	assert.Equal(t, productform.StateSuccess, res.Draft.State)
}

// ============================================================================
// Category builder
// ============================================================================

func TestCategoryDraft_Flow(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("CreateCategory", mock.Anything, mock.Anything).Return(&domain.Category{ID: "cat-new", Name: "Shoes"}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/category-drafts", map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var draft service.CategoryDraftView
	decodeData(t, rec, &draft)

	rec = s.do(t, http.MethodPatch, "/api/v1/admin/category-drafts/"+draft.ID, map[string]any{"name": "Shoes"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/category-drafts/"+draft.ID+"/fields", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var added service.FieldAdded
	decodeData(t, rec, &added)

	fieldPath := "/api/v1/admin/category-drafts/" + draft.ID + "/fields/" + added.FieldID
	rec = s.do(t, http.MethodPatch, fieldPath, map[string]any{"label": "Shoe Size", "inputType": "select", "options": "40, 41, 42"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &draft)
	require.Len(t, draft.Fields, 1)
	assert.Equal(t, "shoe_size", draft.Fields[0].Schema.Key)

	rec = s.do(t, http.MethodPost, fieldPath+"/move", map[string]any{"direction": "left"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, fieldPath+"/move", map[string]any{"direction": "up"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "first field cannot move up")

	rec = s.do(t, http.MethodGet, "/api/v1/admin/category-drafts/"+draft.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview []builder.PreviewField
	decodeData(t, rec, &preview)
	require.Len(t, preview, 1)
	assert.True(t, preview[0].Disabled)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/category-drafts/"+draft.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s.backend.AssertCalled(t, "CreateCategory", mock.Anything, mock.MatchedBy(func(in domain.CategoryInput) bool {
		return in.Slug == "shoes" && len(in.CustomFields) == 1 && in.CustomFields[0].Key == "shoe_size"
	}))
}

func TestCategoryForm(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("GetCategory", mock.Anything, "cat-laptops").Return(laptopCategory(), nil)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/categories/cat-laptops/form", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var form struct {
		Empty  bool `json:"empty"`
		Fields []struct {
			Key string `json:"key"`
		} `json:"fields"`
	}
	decodeData(t, rec, &form)
	assert.False(t, form.Empty)
	require.Len(t, form.Fields, 2)
	assert.Equal(t, "ram", form.Fields[0].Key)
}

// ============================================================================
// Catalog
// ============================================================================

func TestCreateBrand_ValidationError(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/brands", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeData(t, rec, nil)
	require.NotNil(t, errResp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Fields, "name")
}

func TestListProducts_Paginated(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("ListProducts", mock.Anything, pagination.Params{Page: 2, PerPage: 10}, domain.ProductFilter{Search: "shoe"}).
		Return(backend.Page[domain.Product]{Items: []domain.Product{{ID: "p1"}}, TotalCount: 11, Page: 2, PerPage: 10}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/products?page=2&per_page=10&search=shoe", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.PaginatedResponse[domain.Product]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 11, resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
	assert.False(t, resp.HasNext)
	require.Len(t, resp.Data, 1)
}

func TestListAgents_Passthrough(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("ListAgents", mock.Anything).Return([]domain.Agent{json.RawMessage(`{"id":"a1","region":"north"}`)}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[{"id":"a1","region":"north"}]}`, rec.Body.String())
}
