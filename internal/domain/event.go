package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates domain event identifiers.
type EventType string

const (
	EventWorkItemCreated              EventType = "work_item_created"
	EventWorkItemAssigned             EventType = "work_item_assigned"
	EventWorkItemUnassigned           EventType = "work_item_unassigned"
	EventWorkItemReviewStarted        EventType = "work_item_review_started"
	EventWorkItemSubmittedForApproval EventType = "work_item_submitted_for_approval"
	EventWorkItemApproved             EventType = "work_item_approved"
	EventWorkItemCompleted            EventType = "work_item_completed"
	EventWorkItemDeclined             EventType = "work_item_declined"
	EventWorkItemCancelled            EventType = "work_item_cancelled"
	EventWorkItemPriorityChanged      EventType = "work_item_priority_changed"
	EventWorkItemCommentAdded         EventType = "work_item_comment_added"
	EventWorkItemRefreshScheduled     EventType = "work_item_refresh_scheduled"
	EventWorkItemMarkedForRefresh     EventType = "work_item_marked_for_refresh"
	EventChecklistCreated             EventType = "checklist_created"
	EventChecklistItemCompleted       EventType = "checklist_item_completed"
	EventChecklistItemSkipped         EventType = "checklist_item_skipped"
	EventChecklistItemReset           EventType = "checklist_item_reset"
	EventChecklistCompleted           EventType = "checklist_completed"
)

// Event is an immutable record of a state change, buffered on the
// aggregate until the caller drains it after a successful commit.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	ActorID     string    `json:"actor_id"`
	ActorName   string    `json:"actor_name,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload,omitempty"`
}

func newEvent(eventType EventType, aggregateID, actorID, actorName string, at time.Time, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actorID,
		ActorName:   actorName,
		OccurredAt:  at,
		Payload:     payload,
	}
}

// WorkItemCreatedPayload payload.
type WorkItemCreatedPayload struct {
	Number           string    `json:"number"`
	CaseRef          string    `json:"case_ref"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Priority         Priority  `json:"priority"`
	RequiresApproval bool      `json:"requires_approval"`
	DueDate          time.Time `json:"due_date"`
}

// WorkItemAssignedPayload payload.
type WorkItemAssignedPayload struct {
	AssigneeID         string  `json:"assignee_id"`
	AssigneeName       string  `json:"assignee_name"`
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
}

// WorkItemStatusChangedPayload payload shared by plain status moves.
type WorkItemStatusChangedPayload struct {
	OldStatus WorkItemStatus `json:"old_status"`
	NewStatus WorkItemStatus `json:"new_status"`
	Notes     string         `json:"notes,omitempty"`
}

// WorkItemApprovedPayload payload.
type WorkItemApprovedPayload struct {
	ApproverID   string       `json:"approver_id"`
	ApproverRole ReviewerRole `json:"approver_role"`
	Notes        string       `json:"notes,omitempty"`
}

// WorkItemDeclinedPayload payload.
type WorkItemDeclinedPayload struct {
	Reason string `json:"reason"`
}

// WorkItemPriorityChangedPayload payload.
type WorkItemPriorityChangedPayload struct {
	OldPriority Priority `json:"old_priority"`
	NewPriority Priority `json:"new_priority"`
}

// WorkItemCommentAddedPayload payload.
type WorkItemCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}

// WorkItemRefreshScheduledPayload payload.
type WorkItemRefreshScheduledPayload struct {
	NextRefreshDate time.Time `json:"next_refresh_date"`
}

// WorkItemMarkedForRefreshPayload payload.
type WorkItemMarkedForRefreshPayload struct {
	RefreshCount int `json:"refresh_count"`
}

// ChecklistCreatedPayload payload.
type ChecklistCreatedPayload struct {
	OwnerRef  string        `json:"owner_ref"`
	Type      ChecklistType `json:"type"`
	ItemCount int           `json:"item_count"`
}

// ChecklistItemPayload payload shared by item-level events.
type ChecklistItemPayload struct {
	ItemID string `json:"item_id"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// ChecklistCompletedPayload payload.
type ChecklistCompletedPayload struct {
	OwnerRef    string    `json:"owner_ref"`
	CompletedAt time.Time `json:"completed_at"`
}
