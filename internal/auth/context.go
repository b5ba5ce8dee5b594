package auth

import "context"

// Identity is the verified subject attached to a request by the bearer-token
// middleware. Requests without a valid token carry no Identity at all.
type Identity struct {
	UserID string
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying the given identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext reports the identity attached to ctx, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}
