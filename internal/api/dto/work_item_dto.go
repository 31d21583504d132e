package dto

import (
	"time"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// CreateWorkItemRequest payload.
type CreateWorkItemRequest struct {
	CaseRef       string           `json:"case_ref"`
	ApplicantName string           `json:"applicant_name"`
	EntityType    string           `json:"entity_type"`
	Country       string           `json:"country"`
	RiskLevel     domain.RiskLevel `json:"risk_level"`
	SLADays       int              `json:"sla_days"`
}

// AssignRequest payload.
type AssignRequest struct {
	ReviewerID string `json:"reviewer_id"`
}

// DecisionRequest carries optional notes for approve/complete.
type DecisionRequest struct {
	Notes string `json:"notes"`
}

// ReasonRequest carries the mandatory reason for decline/cancel.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// CommentRequest payload.
type CommentRequest struct {
	Body string `json:"body"`
}

// PriorityRequest payload.
type PriorityRequest struct {
	Priority domain.Priority `json:"priority"`
}

// ScheduleRefreshRequest payload.
type ScheduleRefreshRequest struct {
	NextRefreshDate time.Time `json:"next_refresh_date"`
}

// WorkItemSummary response.
type WorkItemSummary struct {
	ID             string                `json:"id"`
	Number         string                `json:"number"`
	CaseRef        string                `json:"case_ref"`
	ApplicantName  string                `json:"applicant_name"`
	EntityType     string                `json:"entity_type"`
	Country        string                `json:"country"`
	Status         domain.WorkItemStatus `json:"status"`
	Priority       domain.Priority       `json:"priority"`
	RiskLevel      domain.RiskLevel      `json:"risk_level"`
	AssignedToID   *string               `json:"assigned_to_id"`
	AssignedToName *string               `json:"assigned_to_name"`
	DueDate        time.Time             `json:"due_date"`
	Overdue        bool                  `json:"overdue"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// WorkItemDetailResponse provides the full review record.
type WorkItemDetailResponse struct {
	WorkItemSummary
	RequiresApproval bool                  `json:"requires_approval"`
	ApprovedByID     *string               `json:"approved_by_id"`
	ApprovedByName   *string               `json:"approved_by_name"`
	ApprovedAt       *time.Time            `json:"approved_at"`
	ApprovalNotes    string                `json:"approval_notes,omitempty"`
	RejectionReason  string                `json:"rejection_reason,omitempty"`
	RejectedAt       *time.Time            `json:"rejected_at"`
	NextRefreshDate  *time.Time            `json:"next_refresh_date"`
	LastRefreshedAt  *time.Time            `json:"last_refreshed_at"`
	RefreshCount     int                   `json:"refresh_count"`
	CreatedByID      string                `json:"created_by_id"`
	CreatedByName    string                `json:"created_by_name"`
	Comments         []CommentResponse     `json:"comments"`
	History          []HistoryEntryResponse `json:"history"`
}

// CommentResponse represents a reviewer comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntryResponse represents one audit trail entry.
type HistoryEntryResponse struct {
	Action     domain.HistoryAction `json:"action"`
	ActorID    string               `json:"actor_id"`
	ActorName  string               `json:"actor_name"`
	Notes      string               `json:"notes,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}
