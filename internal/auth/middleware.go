package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ARIHANT218/Finance-Tracker/internal/http/respond"
)

// Middleware rejects requests whose owner cannot be resolved and stores the
// owner in the request context for the handlers.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := resolver.Resolve(r)
			if err != nil || owner == "" {
				slog.Debug("request not authenticated", "path", r.URL.Path, "error", err)

				switch {
				case err == nil:
					err = ErrUnauthenticated
				case !errors.Is(err, ErrUnauthenticated):
					err = fmt.Errorf("%w: %w", ErrUnauthenticated, err)
				}

				respond.Error(w, r, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
