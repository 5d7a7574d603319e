package auth

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying the verified user.
func NewContext(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// FromContext extracts the verified user placed by the auth middleware.
func FromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(contextKey{}).(User)
	return user, ok
}
