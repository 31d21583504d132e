package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSLADays is the review deadline applied when creation does not
// specify one.
const DefaultSLADays = 7

// WorkItem is the aggregate for one onboarding case's review/approval
// pipeline. All mutation goes through its methods; every observable state
// change appends exactly one history entry and buffers exactly one domain
// event. Descriptive fields are snapshotted at creation and never
// re-synced with the application.
type WorkItem struct {
	ID      string
	Number  string
	CaseRef string

	ApplicantName string
	EntityType    string
	Country       string

	Status   WorkItemStatus
	Priority Priority
	Risk     RiskLevel

	AssignedToID   *string
	AssignedToName *string
	AssignedAt     *time.Time

	RequiresApproval bool
	ApprovedByID     *string
	ApprovedByName   *string
	ApprovedAt       *time.Time
	ApprovalNotes    string
	RejectionReason  string
	RejectedAt       *time.Time

	DueDate         time.Time
	NextRefreshDate *time.Time
	LastRefreshedAt *time.Time
	RefreshCount    int

	CreatedByID   string
	CreatedByName string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	comments       []Comment
	history        []HistoryEntry
	pendingHistory []HistoryEntry
	events         []Event
}

// NewWorkItemInput describes creation parameters supplied by the
// case-management collaborator.
type NewWorkItemInput struct {
	CaseRef       string
	ApplicantName string
	EntityType    string
	Country       string
	Risk          RiskLevel
	CreatedByID   string
	CreatedByName string
	SLADays       int
}

// NewWorkItem creates a work item in status NEW. Priority and the
// approval requirement are derived from the risk level and fixed
// thereafter; the due date is creation time plus the SLA window.
func NewWorkItem(in NewWorkItemInput) *WorkItem {
	now := time.Now()
	sla := in.SLADays
	if sla <= 0 {
		sla = DefaultSLADays
	}

	w := &WorkItem{
		ID:               uuid.NewString(),
		Number:           generateWorkItemNumber(),
		CaseRef:          in.CaseRef,
		ApplicantName:    in.ApplicantName,
		EntityType:       in.EntityType,
		Country:          in.Country,
		Status:           WorkItemStatusNew,
		Priority:         PriorityForRisk(in.Risk),
		Risk:             in.Risk,
		RequiresApproval: RiskRequiresApproval(in.Risk),
		DueDate:          now.AddDate(0, 0, sla),
		CreatedByID:      in.CreatedByID,
		CreatedByName:    in.CreatedByName,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	w.record(now, in.CreatedByID, in.CreatedByName, ActionCreated,
		fmt.Sprintf("case %s (%s)", in.CaseRef, in.Risk),
		EventWorkItemCreated, WorkItemCreatedPayload{
			Number:           w.Number,
			CaseRef:          w.CaseRef,
			RiskLevel:        w.Risk,
			Priority:         w.Priority,
			RequiresApproval: w.RequiresApproval,
			DueDate:          w.DueDate,
		})
	return w
}

// AssignTo assigns the work item to a reviewer and moves it to ASSIGNED.
// Reassignment is allowed; the history entry records the previous
// assignee.
func (w *WorkItem) AssignTo(userID, userName, byID, byName string) error {
	if err := w.ensureOpen("assign"); err != nil {
		return err
	}
	now := time.Now()

	var previous *string
	notes := ""
	if w.AssignedToID != nil {
		prev := *w.AssignedToID
		previous = &prev
		notes = fmt.Sprintf("reassigned from %s", prevName(w))
	}

	w.AssignedToID = &userID
	w.AssignedToName = &userName
	w.AssignedAt = &now
	w.Status = WorkItemStatusAssigned
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionAssigned, notes,
		EventWorkItemAssigned, WorkItemAssignedPayload{
			AssigneeID:         userID,
			AssigneeName:       userName,
			PreviousAssigneeID: previous,
		})
	return nil
}

// Unassign clears the assignment and returns the work item to NEW.
func (w *WorkItem) Unassign(byID, byName string) error {
	if err := w.ensureOpen("unassign"); err != nil {
		return err
	}
	if w.AssignedToID == nil {
		return stateErr("unassign", "work item is not assigned")
	}
	now := time.Now()
	old := w.Status

	w.AssignedToID = nil
	w.AssignedToName = nil
	w.AssignedAt = nil
	w.Status = WorkItemStatusNew
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionUnassigned, "",
		EventWorkItemUnassigned, WorkItemStatusChangedPayload{
			OldStatus: old,
			NewStatus: w.Status,
		})
	return nil
}

// StartReview moves an assigned work item into IN_PROGRESS.
func (w *WorkItem) StartReview(byID, byName string) error {
	if w.Status != WorkItemStatusAssigned {
		return stateErr("start review", "work item must be assigned, current status %s", w.Status)
	}
	now := time.Now()
	old := w.Status
	w.Status = WorkItemStatusInProgress
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionReviewStarted, "",
		EventWorkItemReviewStarted, WorkItemStatusChangedPayload{
			OldStatus: old,
			NewStatus: w.Status,
		})
	return nil
}

// SubmitForApproval moves an in-progress work item into PENDING_APPROVAL.
// Only items that require approval pass through this gate.
func (w *WorkItem) SubmitForApproval(byID, byName string) error {
	if !w.RequiresApproval {
		return stateErr("submit for approval", "work item does not require approval")
	}
	if w.Status != WorkItemStatusInProgress {
		return stateErr("submit for approval", "work item must be in progress, current status %s", w.Status)
	}
	now := time.Now()
	old := w.Status
	w.Status = WorkItemStatusPendingApproval
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionSubmittedForApproval, "",
		EventWorkItemSubmittedForApproval, WorkItemStatusChangedPayload{
			OldStatus: old,
			NewStatus: w.Status,
		})
	return nil
}

// Approve records compliance approval. For HIGH/CRITICAL risk the approver
// role must be in the allowed set; an authorization failure leaves the
// work item untouched.
func (w *WorkItem) Approve(approverID, approverName string, approverRole ReviewerRole, notes string) error {
	if w.Status != WorkItemStatusPendingApproval {
		return stateErr("approve", "work item is not pending approval, current status %s", w.Status)
	}
	if !CanApprove(w.Risk, approverRole) {
		return authErr("approve", "role %s may not approve %s risk work items", approverRole, w.Risk)
	}
	now := time.Now()

	w.Status = WorkItemStatusApproved
	w.ApprovedByID = &approverID
	w.ApprovedByName = &approverName
	w.ApprovedAt = &now
	w.ApprovalNotes = notes
	w.UpdatedAt = now

	w.record(now, approverID, approverName, ActionApproved, notes,
		EventWorkItemApproved, WorkItemApprovedPayload{
			ApproverID:   approverID,
			ApproverRole: approverRole,
			Notes:        notes,
		})
	return nil
}

// Complete finishes the review. Items that require approval must be
// APPROVED first.
func (w *WorkItem) Complete(byID, byName, notes string) error {
	if err := w.ensureOpen("complete"); err != nil {
		return err
	}
	if w.RequiresApproval && w.Status != WorkItemStatusApproved {
		return stateErr("complete", "work item requires approval before completion, current status %s", w.Status)
	}
	now := time.Now()
	old := w.Status
	w.Status = WorkItemStatusCompleted
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionCompleted, notes,
		EventWorkItemCompleted, WorkItemStatusChangedPayload{
			OldStatus: old,
			NewStatus: w.Status,
			Notes:     notes,
		})
	return nil
}

// Decline rejects the case. The reason is mandatory and validated before
// any field changes.
func (w *WorkItem) Decline(byID, byName, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return argErr("reason", "decline reason is required")
	}
	if err := w.ensureOpen("decline"); err != nil {
		return err
	}
	now := time.Now()

	w.Status = WorkItemStatusDeclined
	w.RejectionReason = reason
	w.RejectedAt = &now
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionDeclined, reason,
		EventWorkItemDeclined, WorkItemDeclinedPayload{Reason: reason})
	return nil
}

// Cancel withdraws the case from the pipeline.
func (w *WorkItem) Cancel(byID, byName, reason string) error {
	if err := w.ensureOpen("cancel"); err != nil {
		return err
	}
	now := time.Now()
	old := w.Status
	w.Status = WorkItemStatusCancelled
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionCancelled, reason,
		EventWorkItemCancelled, WorkItemStatusChangedPayload{
			OldStatus: old,
			NewStatus: w.Status,
			Notes:     reason,
		})
	return nil
}

// ScheduleRefresh sets the next periodic re-verification date on a
// completed work item.
func (w *WorkItem) ScheduleRefresh(date time.Time, byID, byName string) error {
	if w.Status != WorkItemStatusCompleted {
		return stateErr("schedule refresh", "work item must be completed, current status %s", w.Status)
	}
	now := time.Now()
	w.NextRefreshDate = &date
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionRefreshScheduled, date.Format(time.RFC3339),
		EventWorkItemRefreshScheduled, WorkItemRefreshScheduledPayload{NextRefreshDate: date})
	return nil
}

// MarkForRefresh moves a completed work item into the re-verification
// cycle and bumps the refresh counter.
func (w *WorkItem) MarkForRefresh(byID, byName string) error {
	if w.Status != WorkItemStatusCompleted {
		return stateErr("mark for refresh", "work item must be completed, current status %s", w.Status)
	}
	now := time.Now()
	w.Status = WorkItemStatusDueForRefresh
	w.RefreshCount++
	w.LastRefreshedAt = &now
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionMarkedForRefresh, "",
		EventWorkItemMarkedForRefresh, WorkItemMarkedForRefreshPayload{RefreshCount: w.RefreshCount})
	return nil
}

// AddComment appends a reviewer comment. No status effect.
func (w *WorkItem) AddComment(body, authorID, authorName string) (Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Comment{}, argErr("body", "comment body is required")
	}
	now := time.Now()
	comment := Comment{
		ID:         uuid.NewString(),
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		At:         now,
	}
	w.comments = append(w.comments, comment)
	w.UpdatedAt = now

	w.record(now, authorID, authorName, ActionCommentAdded, "",
		EventWorkItemCommentAdded, WorkItemCommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: bodyPreview(body, 120),
		})
	return comment, nil
}

// UpdatePriority changes the review priority. Setting the current value
// is a no-op: no history entry, no event.
func (w *WorkItem) UpdatePriority(newPriority Priority, byID, byName string) error {
	if newPriority == w.Priority {
		return nil
	}
	now := time.Now()
	old := w.Priority
	w.Priority = newPriority
	w.UpdatedAt = now

	w.record(now, byID, byName, ActionPriorityChanged,
		fmt.Sprintf("%s -> %s", old, newPriority),
		EventWorkItemPriorityChanged, WorkItemPriorityChangedPayload{
			OldPriority: old,
			NewPriority: newPriority,
		})
	return nil
}

// IsCompleted reports whether the work item reached a final review
// outcome. Completed and Declined are both final.
func (w *WorkItem) IsCompleted() bool {
	return w.Status == WorkItemStatusCompleted || w.Status == WorkItemStatusDeclined
}

// IsOverdue is computed from the due date and completion state on every
// read; it is never stored.
func (w *WorkItem) IsOverdue() bool {
	return w.DueDate.Before(time.Now()) && !w.IsCompleted()
}

// History returns the audit trail as a copy; the backing slice is never
// exposed.
func (w *WorkItem) History() []HistoryEntry {
	out := make([]HistoryEntry, len(w.history))
	copy(out, w.history)
	return out
}

// Comments returns attached comments as a copy.
func (w *WorkItem) Comments() []Comment {
	out := make([]Comment, len(w.comments))
	copy(out, w.comments)
	return out
}

// PendingEvents returns the buffered domain events without clearing them.
func (w *WorkItem) PendingEvents() []Event {
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

// DrainEvents takes and clears the buffered domain events. Callers invoke
// it after a successful commit and dispatch the result downstream.
func (w *WorkItem) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}

// DrainHistory takes and clears history entries appended since the
// aggregate was loaded, for append-only persistence.
func (w *WorkItem) DrainHistory() []HistoryEntry {
	out := w.pendingHistory
	w.pendingHistory = nil
	return out
}

// Restore rehydrates the encapsulated collections from storage. Entries
// restored this way are considered already persisted.
func (w *WorkItem) Restore(history []HistoryEntry, comments []Comment) {
	w.history = history
	w.comments = comments
	w.pendingHistory = nil
	w.events = nil
}

// ensureOpen rejects mutations on work items that reached a final state.
func (w *WorkItem) ensureOpen(op string) error {
	if w.IsCompleted() {
		return stateErr(op, "work item is already %s", w.Status)
	}
	if w.Status == WorkItemStatusCancelled {
		return stateErr(op, "work item is cancelled")
	}
	return nil
}

func (w *WorkItem) record(at time.Time, actorID, actorName string, action HistoryAction, notes string, eventType EventType, payload any) {
	entry := HistoryEntry{
		At:        at,
		ActorID:   actorID,
		ActorName: actorName,
		Action:    action,
		Notes:     notes,
	}
	w.history = append(w.history, entry)
	w.pendingHistory = append(w.pendingHistory, entry)
	w.events = append(w.events, newEvent(eventType, w.ID, actorID, actorName, at, payload))
}

func prevName(w *WorkItem) string {
	if w.AssignedToName != nil && *w.AssignedToName != "" {
		return *w.AssignedToName
	}
	if w.AssignedToID != nil {
		return *w.AssignedToID
	}
	return "unknown"
}

func bodyPreview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func generateWorkItemNumber() string {
	return "WI-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
