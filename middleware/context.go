package middleware

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/recipe-hub/auth"
)

// Context key type to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the authenticated caller
	IdentityKey contextKey = "identity"
)

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// GetIdentityFromContext retrieves the authenticated identity from context
func GetIdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if val := ctx.Value(IdentityKey); val != nil {
		if identity, ok := val.(auth.Identity); ok {
			return identity, true
		}
	}
	return auth.Identity{}, false
}

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
