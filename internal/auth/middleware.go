package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/observability"
	apperrors "github.com/spec-kit/problem-tracker/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// UnauthorizedMessage is the single client-visible message for every token failure.
const UnauthorizedMessage = "Access denied. Please provide a valid token."

// TokenVerifier resolves a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (*domain.Principal, error)
}

// AuthMiddleware validates bearer tokens and attaches principals.
type AuthMiddleware struct {
	tokens  TokenVerifier
	metrics *observability.Metrics
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenVerifier, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, metrics: metrics}
}

// Handle enforces authentication for protected routes. The credential store is not consulted;
// the token alone decides.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		m.metrics.RecordAuth(observability.AuthEventToken, "missing")
		return apperrors.NewUnauthorized(UnauthorizedMessage)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		m.metrics.RecordAuth(observability.AuthEventToken, "malformed_header")
		return apperrors.NewUnauthorized(UnauthorizedMessage)
	}

	principal, err := m.tokens.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		outcome := "invalid"
		if errors.Is(err, ErrTokenExpired) {
			outcome = "expired"
		}
		m.metrics.RecordAuth(observability.AuthEventToken, outcome)
		return apperrors.NewUnauthorized(UnauthorizedMessage)
	}

	c.Locals(principalKey, principal)
	c.SetUserContext(WithPrincipal(c.UserContext(), principal))
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(*domain.Principal)
	return principal, ok && principal != nil
}
