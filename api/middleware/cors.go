package middleware

import (
	"context"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/web"
)

// Cors lets the storefront pages at origin call the API with their session
// cookie.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Request-Id")
			w.Header().Add("Vary", "Origin")

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
