package middleware

import (
	"net/http"

	"github.com/doodlesbykumbi/fincore-authz/pkg/identity"
)

// Limiter admits or rejects the next request of an actor.
type Limiter interface {
	Allow(actorID string) bool
}

// Throttle rejects requests of actors that exhausted their attempt budget.
// It must run after Middleware so the identity is known.
func Throttle(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.Get(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Authorization missing"))
				return
			}
			if !l.Allow(id.UserID) {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte("too many authorization attempts"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
