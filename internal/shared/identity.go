package shared

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated principal attached to every request. OrgID is
// the tenant boundary: record services trust it completely and scope every
// query with it.
type Identity struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. The second return
// value is false when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
