package api

import (
	"net/http"
	"strings"

	"github.com/256dpi/serve"
)

// DefaultBodyLimiter constructs a middleware that caps request bodies at 4K
// while granting post creation 8M for attachment uploads.
func DefaultBodyLimiter() func(http.Handler) http.Handler {
	return NewBodyLimiter("4K", "8M")
}

// NewBodyLimiter constructs a middleware that limits request bodies to the
// general size. Post creation gets the upload size instead, as it may carry a
// multipart attachment destined for the storage service.
func NewBodyLimiter(general, upload string) func(http.Handler) http.Handler {
	generalLimit := serve.MustByteSize(general)
	uploadLimit := serve.MustByteSize(upload)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// select limit
			limit := generalLimit
			if r.Method == "POST" && strings.Trim(r.URL.Path, "/") == "posts" {
				limit = uploadLimit
			}

			// limit body
			serve.LimitBody(w, r, limit)

			// call next handler
			next.ServeHTTP(w, r)
		})
	}
}
