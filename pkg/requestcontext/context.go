// Package requestcontext provides HTTP-independent context accessors
// for request-scoped values.
//
// Middleware sets these values; services only read them. Keeping the
// package free of net/http lets services consume the current user or
// the request time without pulling in HTTP code.
//
// Usage in services (read values):
//
//	user, ok := requestcontext.CurrentUser(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUser(ctx, user)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "switchboard/pkg/domain"
)

// User is the already-authenticated caller resolved by the auth
// collaborator in front of this service. Extension is the user's PBX
// line and may be empty; call origination checks it explicitly.
type User struct {
	ID        id.UserID
	Name      string
	Email     string
	Extension string
}

// HasExtension reports whether the user may originate calls.
func (u User) HasExtension() bool { return u.Extension != "" }

// Context key types (unexported for encapsulation).
type (
	userKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	browserKey     struct{}
)

// CurrentUser retrieves the authenticated user from the context.
func CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// RequestID retrieves the request ID from the context, or "".
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Browser retrieves the browser family parsed from the User-Agent
// header, or "".
func Browser(ctx context.Context) string {
	if b, ok := ctx.Value(browserKey{}).(string); ok {
		return b
	}
	return ""
}

// WithBrowser injects a parsed browser family into the context.
func WithBrowser(ctx context.Context, browser string) context.Context {
	return context.WithValue(ctx, browserKey{}, browser)
}

// Now retrieves the request-scoped time from the context, falling back
// to time.Now() for non-HTTP contexts such as tests or CLI commands.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into the context. Useful for service
// unit tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
