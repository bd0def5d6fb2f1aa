// Package middleware carries the HTTP middleware chain: request
// identity, request-scoped time, the current user handed over by the
// auth proxy, and client device metadata.
package middleware

import (
	"log/slog"
	"net/http"

	id "switchboard/pkg/domain"
	"switchboard/pkg/requestcontext"
)

// Header names set by the authenticating reverse proxy in front of the
// service. Authentication itself is out of scope here; by the time a
// request reaches us the proxy has already resolved the user.
const (
	HeaderUserID        = "X-User-Id"
	HeaderUserName      = "X-User-Name"
	HeaderUserEmail     = "X-User-Email"
	HeaderUserExtension = "X-User-Extension"
)

// CurrentUser lifts the proxy-supplied user headers into the request
// context. Requests without a user header pass through anonymous;
// handlers that need a user enforce that themselves.
func CurrentUser(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := r.Header.Get(HeaderUserName)
			if name == "" {
				next.ServeHTTP(w, r)
				return
			}

			user := requestcontext.User{
				Name:      name,
				Email:     r.Header.Get(HeaderUserEmail),
				Extension: r.Header.Get(HeaderUserExtension),
			}
			if rawID := r.Header.Get(HeaderUserID); rawID != "" {
				userID, err := id.ParseUserID(rawID)
				if err != nil {
					logger.WarnContext(r.Context(), "ignoring malformed user id header",
						"header", HeaderUserID, "error", err)
				} else {
					user.ID = userID
				}
			}

			ctx := requestcontext.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that reached a protected route without
// a resolved user. The proxy normally guarantees this; the middleware
// is the backstop for misconfiguration.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requestcontext.CurrentUser(r.Context()); !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
