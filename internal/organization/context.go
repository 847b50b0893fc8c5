// Package organization carries the per-request organization scope.
// Organizations are owned by the calling system; this service only
// propagates their ids into storage and retrieval filters.
package organization

import "context"

type contextKey struct{}

// DefaultID scopes requests that arrive without an explicit
// organization header.
const DefaultID = "default"

func WithID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, contextKey{}, orgID)
}

// IDFromContext returns the organization id set by the API middleware,
// or the empty string when the context carries none.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
