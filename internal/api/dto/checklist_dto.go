package dto

import (
	"time"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// CreateChecklistRequest payload.
type CreateChecklistRequest struct {
	OwnerRef string               `json:"owner_ref"`
	Type     domain.ChecklistType `json:"type"`
}

// ChecklistItemActionRequest carries notes or a reason for item operations.
type ChecklistItemActionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// ChecklistResponse represents a checklist with its items.
type ChecklistResponse struct {
	ID          string                  `json:"id"`
	OwnerRef    string                  `json:"owner_ref"`
	Type        domain.ChecklistType    `json:"type"`
	Status      domain.ChecklistStatus  `json:"status"`
	CompletedAt *time.Time              `json:"completed_at"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Items       []ChecklistItemResponse `json:"items"`
}

// ChecklistItemResponse represents one requirement.
type ChecklistItemResponse struct {
	ID              string                     `json:"id"`
	Code            string                     `json:"code"`
	Name            string                     `json:"name"`
	Description     string                     `json:"description,omitempty"`
	Category        string                     `json:"category,omitempty"`
	Required        bool                       `json:"required"`
	SortOrder       int                        `json:"sort_order"`
	Status          domain.ChecklistItemStatus `json:"status"`
	CompletedByID   *string                    `json:"completed_by_id"`
	CompletedByName *string                    `json:"completed_by_name"`
	CompletedAt     *time.Time                 `json:"completed_at"`
	Notes           string                     `json:"notes,omitempty"`
	SkipReason      string                     `json:"skip_reason,omitempty"`
}

// ChecklistProgressResponse reports completion metrics.
type ChecklistProgressResponse struct {
	ChecklistID                  string                 `json:"checklist_id"`
	OwnerRef                     string                 `json:"owner_ref"`
	Status                       domain.ChecklistStatus `json:"status"`
	CompletionPercentage         float64                `json:"completion_percentage"`
	RequiredCompletionPercentage float64                `json:"required_completion_percentage"`
	TotalScore                   int                    `json:"total_score"`
}
