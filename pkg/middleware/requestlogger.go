package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/catalog-admin/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation, user and trace identifiers. Mount it after RequestLogging,
// Tracing and JWTAuth so those values are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
