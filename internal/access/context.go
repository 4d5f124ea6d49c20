package access

import (
	"context"
	"net/http"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok && p.UID != ""
}

// WorkspaceFromContext returns the workspace owned by the caller.
func WorkspaceFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.UID, true
}

// WorkspaceFromRequest adapts WorkspaceFromContext to request-based callers.
func WorkspaceFromRequest(r *http.Request) (string, bool) {
	return WorkspaceFromContext(r.Context())
}
