package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/health"
	"github.com/utafrali/catalog-admin/pkg/middleware"
)

const serviceName = "catalog-admin"

// AdminRole is the JWT role allowed to use the admin API.
const AdminRole = "admin"

// Services groups the workflows exposed over HTTP.
type Services struct {
	ProductDrafts *service.ProductDraftService
	Categories    *service.CategoryBuilderService
	Catalog       *service.CatalogService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	JWTSecret      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// UploadMaxBytes bounds a single image; the multipart body may hold up
	// to maxImagesPerBatch of them.
	UploadMaxBytes int64
}

// NewRouter creates a chi router with all admin routes registered. ctx
// bounds background work started by middleware.
func NewRouter(
	ctx context.Context,
	svcs Services,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSOrigins
	}

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.CORS(cors))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	products := NewProductDraftHandler(svcs.ProductDrafts, cfg.UploadMaxBytes, logger)
	categories := NewCategoryHandler(svcs.Catalog, svcs.Categories, logger)
	catalog := NewCatalogHandler(svcs.Catalog, logger)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret, logger))
		r.Use(middleware.RequireRole(AdminRole))
		r.Use(middleware.RequestLogger(logger))
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(middleware.NoStore)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))

			r.Get("/categories", categories.ListCategories)
			r.Get("/categories/{id}", categories.GetCategory)
			r.Get("/categories/{id}/form", categories.CategoryForm)
			r.Delete("/categories/{id}", categories.DeleteCategory)

			r.Post("/category-drafts", categories.CreateDraft)
			r.Get("/category-drafts/{id}", categories.GetDraft)
			r.Patch("/category-drafts/{id}", categories.PatchInfo)
			r.Delete("/category-drafts/{id}", categories.DiscardDraft)
			r.Post("/category-drafts/{id}/fields", categories.AddField)
			r.Patch("/category-drafts/{id}/fields/{fieldId}", categories.PatchField)
			r.Delete("/category-drafts/{id}/fields/{fieldId}", categories.RemoveField)
			r.Post("/category-drafts/{id}/fields/{fieldId}/move", categories.MoveField)
			r.Get("/category-drafts/{id}/preview", categories.Preview)
			r.Post("/category-drafts/{id}/save", categories.Save)

			r.Get("/brands", catalog.ListBrands)
			r.Post("/brands", catalog.CreateBrand)
			r.Put("/brands/{id}", catalog.UpdateBrand)
			r.Delete("/brands/{id}", catalog.DeleteBrand)

			r.Get("/products", catalog.ListProducts)
			r.Delete("/products/{id}", catalog.DeleteProduct)

			r.Get("/agents", catalog.ListAgents)
			r.Get("/pickup-stations", catalog.ListPickupStations)

			r.Post("/product-drafts", products.Create)
			r.Get("/product-drafts/{id}", products.Get)
			r.Patch("/product-drafts/{id}", products.Patch)
			r.Delete("/product-drafts/{id}", products.Discard)
			r.Post("/product-drafts/{id}/tags", products.AddTag)
			r.Delete("/product-drafts/{id}/tags/{tag}", products.RemoveTag)
			r.Delete("/product-drafts/{id}/images/{index}", products.RemoveImage)
			r.Post("/product-drafts/{id}/submit", products.Submit)
		})

		// Image batches can outlast the default request timeout.
		r.With(chimw.Timeout(2*time.Minute)).Post("/product-drafts/{id}/images", products.UploadImages)
	})

	return r
}
