package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize caps request bodies at 64KB. Task text is limited to
// 1000 characters, so real requests are far smaller.
const DefaultMaxRequestSize int64 = 64 << 10

// MaxRequestSize rejects bodies that declare more than maxBytes and caps the
// rest with http.MaxBytesReader, so decoding a streamed body fails at the limit.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body is too large", nil)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
