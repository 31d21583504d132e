package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/repository"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated reviewer.
type Principal struct {
	Reviewer *domain.Reviewer
	Role     domain.ReviewerRole
}

// AuthMiddleware validates bearer tokens and loads the reviewer principal.
type AuthMiddleware struct {
	tokens    *TokenManager
	reviewers repository.ReviewerRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, reviewers repository.ReviewerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, reviewers: reviewers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	reviewer, err := m.reviewers.GetByID(c.Context(), claims.ReviewerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("reviewer not found")
		}
		return apperrors.MapError(err)
	}
	if !reviewer.Active {
		return apperrors.NewUnauthorized("reviewer deactivated")
	}

	c.Locals(principalKey, &Principal{Reviewer: reviewer, Role: reviewer.Role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated reviewer.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
