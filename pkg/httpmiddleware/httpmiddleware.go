// Package httpmiddleware holds HTTP middleware shared by all routers:
// correlation IDs, CORS and security headers.
package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/unrolled/secure"
)

const correlationHeader = "X-Correlation-ID"

type contextKey struct{}

var correlationKey contextKey

// CorrelationID assigns every request a fresh correlation ID. Client
// supplied values are ignored so IDs cannot be spoofed. The ID is
// stored on the request context and echoed on the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()

			r.Header.Set(correlationHeader, id)
			w.Header().Set(correlationHeader, id)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey, id)))
		})
	}
}

// CorrelationIDFromContext returns the correlation ID set by
// CorrelationID, or an empty string.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// CORSConfig controls cross-origin behaviour.
type CORSConfig struct {
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowedOrigins   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig is suitable for the webhook and status endpoints.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization"},
		AllowedOrigins:   []string{"https://*", "http://*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// CORS builds the CORS middleware from a config.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedMethods:   config.AllowedMethods,
		AllowedHeaders:   config.AllowedHeaders,
		AllowedOrigins:   config.AllowedOrigins,
		ExposedHeaders:   config.ExposedHeaders,
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	})
}

// Security adds standard security headers. A nil opts uses the
// library defaults.
func Security(opts *secure.Options) func(http.Handler) http.Handler {
	if opts == nil {
		return secure.New().Handler
	}
	return secure.New(*opts).Handler
}
