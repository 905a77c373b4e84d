package http

import (
	"context"
	"log"
	"net/http"

	"cybershield-quiz-service/internal/domain"
)

// Limiter decides whether a client key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit throttles writes per caller. Reads pass through. When the limiter
// itself fails the request is let through and the failure logged.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			key := r.RemoteAddr
			if id, ok := IdentityFromContext(r.Context()); ok {
				key = "user:" + id.UserID
			}
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Printf("rate limiter: %v", err)
				allowed = true
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				writeError(w, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
