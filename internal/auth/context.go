package auth

import (
	"context"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

type principalCtxKey struct{}

// WithPrincipal returns a copy of ctx carrying the resolved principal.
func WithPrincipal(ctx context.Context, principal *domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, principal)
}

// PrincipalFrom extracts the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*domain.Principal, bool) {
	principal, ok := ctx.Value(principalCtxKey{}).(*domain.Principal)
	return principal, ok && principal != nil
}
