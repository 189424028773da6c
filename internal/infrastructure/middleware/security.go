package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// MaxBodyBytes caps request bodies accepted by the API
const MaxBodyBytes = 1 << 20

// SecurityHeadersMiddleware sets conservative browser security headers
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InputValidationMiddleware limits body size and requires a JSON content
// type on API writes
func InputValidationMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
			}

			if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/") {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || mediaType != "application/json" {
					logger.Warn().
						Str("path", r.URL.Path).
						Str("contentType", r.Header.Get("Content-Type")).
						Msg("Rejected request with unsupported content type")
					http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
