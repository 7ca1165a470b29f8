package middleware

import "net/http"

const (
	// DefaultMaxBodySize bounds public request bodies at 1MB.
	DefaultMaxBodySize int64 = 1 << 20

	// AdminMaxBodySize bounds admin request bodies at 5MB.
	AdminMaxBodySize int64 = 5 << 20
)

// RequestSize wraps the request body with http.MaxBytesReader. Bodies over
// maxBytes fail with 413 when read.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
