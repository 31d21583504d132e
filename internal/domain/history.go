package domain

import "time"

// HistoryAction labels an audit trail entry.
type HistoryAction string

const (
	ActionCreated             HistoryAction = "CREATED"
	ActionAssigned            HistoryAction = "ASSIGNED"
	ActionUnassigned          HistoryAction = "UNASSIGNED"
	ActionReviewStarted       HistoryAction = "REVIEW_STARTED"
	ActionSubmittedForApproval HistoryAction = "SUBMITTED_FOR_APPROVAL"
	ActionApproved            HistoryAction = "APPROVED"
	ActionCompleted           HistoryAction = "COMPLETED"
	ActionDeclined            HistoryAction = "DECLINED"
	ActionCancelled           HistoryAction = "CANCELLED"
	ActionPriorityChanged     HistoryAction = "PRIORITY_CHANGED"
	ActionCommentAdded        HistoryAction = "COMMENT_ADDED"
	ActionRefreshScheduled    HistoryAction = "REFRESH_SCHEDULED"
	ActionMarkedForRefresh    HistoryAction = "MARKED_FOR_REFRESH"
)

// HistoryEntry is an immutable audit record of who did what and when.
// Entries are append-only; the trail is never mutated or reordered.
type HistoryEntry struct {
	At        time.Time
	ActorID   string
	ActorName string
	Action    HistoryAction
	Notes     string
}

// Comment captures reviewer notes attached to a work item.
type Comment struct {
	ID         string
	AuthorID   string
	AuthorName string
	Body       string
	At         time.Time
}
