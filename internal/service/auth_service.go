package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/onboarding-service/internal/auth"
	"github.com/spec-kit/onboarding-service/internal/config"
	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/repository"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

// AuthService coordinates reviewer login and password flows.
type AuthService struct {
	reviewers  repository.ReviewerRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, reviewers repository.ReviewerRepository, resets repository.PasswordResetRepository) *AuthService {
	return &AuthService{
		reviewers:  reviewers,
		resets:     resets,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterReviewer creates a reviewer account. Intended for admin use.
func (s *AuthService) RegisterReviewer(ctx context.Context, name, email, password string, role domain.ReviewerRole) (*domain.Reviewer, error) {
	if _, err := s.reviewers.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	reviewer := &domain.Reviewer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.reviewers.Create(ctx, reviewer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reviewer, nil
}

// Login authenticates a reviewer and returns a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Reviewer, string, time.Time, error) {
	reviewer, err := s.reviewers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !reviewer.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account deactivated")
	}
	if err := auth.ComparePassword(reviewer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(reviewer.ID, reviewer.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return reviewer, token, exp, nil
}

// RequestPasswordReset persists a reset token for a reviewer email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	reviewer, err := s.reviewers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reviewer", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}

	token := &repository.PasswordResetToken{
		ReviewerID: reviewer.ID,
		Token:      uuid.NewString(),
		ExpiresAt:  time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid reset token")
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	reviewer, err := s.reviewers.GetByID(ctx, token.ReviewerID)
	if err != nil {
		return apperrors.MapError(err)
	}
	reviewer.PasswordHash = hash
	if err := s.reviewers.Update(ctx, reviewer); err != nil {
		return apperrors.MapError(err)
	}
	return apperrors.MapError(s.resets.MarkUsed(ctx, token.ID))
}

// ChangePassword verifies the current password before updating to the new
// hash.
func (s *AuthService) ChangePassword(ctx context.Context, reviewerID, currentPassword, newPassword string) error {
	reviewer, err := s.reviewers.GetByID(ctx, reviewerID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(reviewer.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	reviewer.PasswordHash = hash
	return apperrors.MapError(s.reviewers.Update(ctx, reviewer))
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
