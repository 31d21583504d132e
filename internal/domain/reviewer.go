package domain

import "time"

// Reviewer models a compliance operator who works onboarding cases.
type Reviewer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         ReviewerRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
