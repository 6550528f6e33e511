package identity

import "context"

type contextKey struct{}

// ContextWithPrincipal attaches a verified Principal to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext retrieves the Principal placed by the auth
// middleware. Absence means the request never passed authentication.
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}
