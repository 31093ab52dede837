package auth

import (
	"context"
	"net/http"
)

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityFromContext returns the identity stored by Resolve, or Unauthenticated.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

// WithIdentity stores id in ctx. Tests use it to skip the middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Resolve runs the resolver for every request and stores the result in the
// request context. It never rejects; handlers decide what Unauthenticated means.
func Resolve(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := resolver.Resolve(r)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
