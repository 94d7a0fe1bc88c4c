package middleware

import (
	"context"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

// IdentityKey is the context key for the authenticated caller
const IdentityKey contextKey = "identity"

// Identity is the authenticated caller for the lifetime of one request.
// It is rebuilt from the user store on every request and never cached.
type Identity struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role.IsAdmin()
}

// GetRequestIDFromContext returns the ID assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// IdentityFromContext returns the identity stored by RequireAuth, or nil
func IdentityFromContext(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
