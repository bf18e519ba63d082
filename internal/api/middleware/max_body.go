package middleware

import (
	"net/http"

	"github.com/cloo-solutions/veccache/internal/api"
)

// MaxBodyBytes caps request body size. Search requests carry raw query
// embeddings as JSON float arrays, so the cap must leave headroom for a
// full-dimension vector plus filters; callers size it accordingly.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Reject on the declared length when the client sent one,
			// before reading a byte. Chunked bodies fall through to the
			// reader cap.
			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
