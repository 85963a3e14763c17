package httpapi

import (
	"context"
	"net/http"
	"strings"

	"kfolx-backend-go/internal/ratelimit"
	"kfolx-backend-go/internal/services"
)

type contextKey string

const ctxUserID contextKey = "userID"

const (
	msgLoginRequired = "Silakan login terlebih dahulu"
	msgTooManyTries  = "Terlalu banyak percobaan. Silakan coba lagi nanti."
)

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, msgLoginRequired)
				return
			}
			userID, err := tokenService.SubjectID(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")), "access")
			if err != nil {
				WriteError(w, http.StatusUnauthorized, msgLoginRequired)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentUserID(r *http.Request) int64 {
	if value, ok := r.Context().Value(ctxUserID).(int64); ok {
		return value
	}
	return 0
}

// RateLimit throttles a route per client IP as seen through the trusted
// proxies. A nil limiter lets everything through.
func RateLimit(limiter *ratelimit.Limiter, proxies proxySet, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), scope, resolveClientIP(r, proxies)) {
				w.Header().Set("Retry-After", "60")
				WriteError(w, http.StatusTooManyRequests, msgTooManyTries)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
