package dto

import (
	"time"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterReviewerRequest payload.
type RegisterReviewerRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Role     domain.ReviewerRole `json:"role"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse wraps an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReviewerResponse represents a reviewer account.
type ReviewerResponse struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Email  string              `json:"email"`
	Role   domain.ReviewerRole `json:"role"`
	Active bool                `json:"active"`
}
