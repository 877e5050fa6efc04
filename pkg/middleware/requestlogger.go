package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/designstudio/pkg/logger"
)

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, cart_scope, profile_id, trace_id and span_id, then
// stores it in context via logger.NewContext.
//
// Mount it after RequestLogging (correlation id), Tracing (span) and the
// session middleware (profile) so those fields are available. cart_scope is
// only present when an earlier middleware set it.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
