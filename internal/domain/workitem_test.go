package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkItem(t *testing.T, risk RiskLevel) *WorkItem {
	t.Helper()
	return NewWorkItem(NewWorkItemInput{
		CaseRef:       "case-123",
		ApplicantName: "Acme Holdings Ltd",
		EntityType:    "CORPORATE",
		Country:       "DE",
		Risk:          risk,
		CreatedByID:   "sys-1",
		CreatedByName: "intake",
	})
}

func TestNewWorkItem(t *testing.T) {
	t.Run("derives priority and approval gate from risk", func(t *testing.T) {
		cases := []struct {
			risk             RiskLevel
			wantPriority     Priority
			requiresApproval bool
		}{
			{RiskLevelCritical, PriorityCritical, true},
			{RiskLevelHigh, PriorityHigh, true},
			{RiskLevelMedium, PriorityMedium, false},
			{RiskLevelLow, PriorityLow, false},
			{RiskLevelUnknown, PriorityMedium, false},
		}
		for _, tc := range cases {
			w := newTestWorkItem(t, tc.risk)
			assert.Equal(t, WorkItemStatusNew, w.Status, "risk %s", tc.risk)
			assert.Equal(t, tc.wantPriority, w.Priority, "risk %s", tc.risk)
			assert.Equal(t, tc.requiresApproval, w.RequiresApproval, "risk %s", tc.risk)
			assert.False(t, w.IsOverdue(), "risk %s", tc.risk)
			assert.False(t, w.IsCompleted(), "risk %s", tc.risk)
		}
	})

	t.Run("sets due date from SLA days", func(t *testing.T) {
		w := NewWorkItem(NewWorkItemInput{
			CaseRef: "case-9", Risk: RiskLevelLow,
			CreatedByID: "sys-1", SLADays: 30,
		})
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), w.DueDate, time.Minute)
	})

	t.Run("falls back to default SLA", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, DefaultSLADays), w.DueDate, time.Minute)
	})

	t.Run("records creation history and event", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelHigh)
		history := w.History()
		require.Len(t, history, 1)
		assert.Equal(t, ActionCreated, history[0].Action)

		events := w.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventWorkItemCreated, events[0].Type)
		payload, ok := events[0].Payload.(WorkItemCreatedPayload)
		require.True(t, ok)
		assert.True(t, payload.RequiresApproval)
		assert.Equal(t, w.Number, payload.Number)
	})

	t.Run("assigns a work item number", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		assert.Regexp(t, `^WI-[0-9A-F]{8}$`, w.Number)
	})
}

func TestWorkItemAssignment(t *testing.T) {
	t.Run("assign moves to ASSIGNED", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))

		assert.Equal(t, WorkItemStatusAssigned, w.Status)
		require.NotNil(t, w.AssignedToID)
		assert.Equal(t, "rev-1", *w.AssignedToID)
		assert.NotNil(t, w.AssignedAt)
	})

	t.Run("reassign records previous assignee", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		require.NoError(t, w.AssignTo("rev-2", "Kim", "lead-1", "Sam"))

		history := w.History()
		last := history[len(history)-1]
		assert.Equal(t, ActionAssigned, last.Action)
		assert.Contains(t, last.Notes, "Dana")

		events := w.PendingEvents()
		payload, ok := events[len(events)-1].Payload.(WorkItemAssignedPayload)
		require.True(t, ok)
		require.NotNil(t, payload.PreviousAssigneeID)
		assert.Equal(t, "rev-1", *payload.PreviousAssigneeID)
	})

	t.Run("assign fails on finished work item", func(t *testing.T) {
		w := completedWorkItem(t, RiskLevelLow)
		err := w.AssignTo("rev-2", "Kim", "lead-1", "Sam")
		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
	})

	t.Run("unassign clears assignment and returns to NEW", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		require.NoError(t, w.Unassign("lead-1", "Sam"))

		assert.Equal(t, WorkItemStatusNew, w.Status)
		assert.Nil(t, w.AssignedToID)
		assert.Nil(t, w.AssignedAt)
	})

	t.Run("unassign fails when nothing is assigned", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		var stateErr *StateError
		require.ErrorAs(t, w.Unassign("lead-1", "Sam"), &stateErr)
	})
}

func TestWorkItemReviewFlow(t *testing.T) {
	t.Run("start review requires ASSIGNED", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		var stateErr *StateError
		require.ErrorAs(t, w.StartReview("rev-1", "Dana"), &stateErr)
		assert.Equal(t, WorkItemStatusNew, w.Status)
	})

	t.Run("submit for approval rejected without approval gate", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		require.NoError(t, w.StartReview("rev-1", "Dana"))

		var stateErr *StateError
		require.ErrorAs(t, w.SubmitForApproval("rev-1", "Dana"), &stateErr)
		assert.Equal(t, WorkItemStatusInProgress, w.Status)
	})

	t.Run("submit for approval requires IN_PROGRESS", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelHigh)
		var stateErr *StateError
		require.ErrorAs(t, w.SubmitForApproval("rev-1", "Dana"), &stateErr)
	})

	t.Run("low risk path completes without approval", func(t *testing.T) {
		// Scenario: Create(Low) -> Assign -> StartReview -> Complete.
		w := newTestWorkItem(t, RiskLevelLow)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		require.NoError(t, w.StartReview("rev-1", "Dana"))
		require.NoError(t, w.Complete("rev-1", "Dana", "done"))

		assert.Equal(t, WorkItemStatusCompleted, w.Status)
		assert.True(t, w.IsCompleted())

		// Overdue never holds for a finished item, even past the due date.
		w.DueDate = time.Now().Add(-48 * time.Hour)
		assert.False(t, w.IsOverdue())
	})

	t.Run("high risk path walks the full approval graph", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelHigh)
		observed := []WorkItemStatus{w.Status}

		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		observed = append(observed, w.Status)
		require.NoError(t, w.StartReview("rev-1", "Dana"))
		observed = append(observed, w.Status)
		require.NoError(t, w.SubmitForApproval("rev-1", "Dana"))
		observed = append(observed, w.Status)
		require.NoError(t, w.Approve("mgr-1", "Noor", RoleComplianceManager, "ok"))
		observed = append(observed, w.Status)
		require.NoError(t, w.Complete("rev-1", "Dana", ""))
		observed = append(observed, w.Status)

		assert.Equal(t, []WorkItemStatus{
			WorkItemStatusNew,
			WorkItemStatusAssigned,
			WorkItemStatusInProgress,
			WorkItemStatusPendingApproval,
			WorkItemStatusApproved,
			WorkItemStatusCompleted,
		}, observed)
	})

	t.Run("complete blocked while approval is outstanding", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelHigh)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		require.NoError(t, w.StartReview("rev-1", "Dana"))

		err := w.Complete("rev-1", "Dana", "")
		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, WorkItemStatusInProgress, w.Status)
	})
}

func TestWorkItemApprove(t *testing.T) {
	pending := func(t *testing.T, risk RiskLevel) *WorkItem {
		w := newTestWorkItem(t, risk)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		require.NoError(t, w.StartReview("rev-1", "Dana"))
		require.NoError(t, w.SubmitForApproval("rev-1", "Dana"))
		return w
	}

	t.Run("requires PENDING_APPROVAL", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelHigh)
		var stateErr *StateError
		require.ErrorAs(t, w.Approve("mgr-1", "Noor", RoleComplianceManager, ""), &stateErr)
	})

	t.Run("rejects unauthorized roles on elevated risk", func(t *testing.T) {
		for _, risk := range []RiskLevel{RiskLevelHigh, RiskLevelCritical} {
			w := pending(t, risk)
			historyLen := len(w.History())

			err := w.Approve("rev-9", "Ola", RoleAnalyst, "")
			var authErr *AuthorizationError
			require.ErrorAs(t, err, &authErr, "risk %s", risk)

			// Authorization failure leaves the aggregate untouched.
			assert.Equal(t, WorkItemStatusPendingApproval, w.Status)
			assert.Nil(t, w.ApprovedByID)
			assert.Len(t, w.History(), historyLen)
		}
	})

	t.Run("allows compliance manager and admin", func(t *testing.T) {
		for _, role := range []ReviewerRole{RoleComplianceManager, RoleAdmin} {
			w := pending(t, RiskLevelCritical)
			require.NoError(t, w.Approve("mgr-1", "Noor", role, "checked"))

			assert.Equal(t, WorkItemStatusApproved, w.Status)
			require.NotNil(t, w.ApprovedByID)
			assert.Equal(t, "mgr-1", *w.ApprovedByID)
			assert.NotNil(t, w.ApprovedAt)
			assert.Equal(t, "checked", w.ApprovalNotes)
		}
	})
}

func TestWorkItemDecline(t *testing.T) {
	t.Run("blank reason rejected before mutation", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelMedium)
		historyLen := len(w.History())

		for _, reason := range []string{"", "   ", "\t\n"} {
			err := w.Decline("rev-1", "Dana", reason)
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
		}
		assert.Equal(t, WorkItemStatusNew, w.Status)
		assert.Empty(t, w.RejectionReason)
		assert.Len(t, w.History(), historyLen)
	})

	t.Run("records reason and timestamp", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelMedium)
		require.NoError(t, w.Decline("rev-1", "Dana", "  sanctions hit  "))

		assert.Equal(t, WorkItemStatusDeclined, w.Status)
		assert.Equal(t, "sanctions hit", w.RejectionReason)
		assert.NotNil(t, w.RejectedAt)
		assert.True(t, w.IsCompleted())
	})

	t.Run("declining twice fails", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelMedium)
		require.NoError(t, w.Decline("rev-1", "Dana", "fraud"))
		var stateErr *StateError
		require.ErrorAs(t, w.Decline("rev-1", "Dana", "again"), &stateErr)
	})
}

func TestWorkItemCancel(t *testing.T) {
	w := newTestWorkItem(t, RiskLevelMedium)
	require.NoError(t, w.Cancel("rev-1", "Dana", "applicant withdrew"))
	assert.Equal(t, WorkItemStatusCancelled, w.Status)

	// Cancelled items accept no further transitions.
	var stateErr *StateError
	require.ErrorAs(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"), &stateErr)
	require.ErrorAs(t, w.Cancel("rev-1", "Dana", "twice"), &stateErr)

	completed := completedWorkItem(t, RiskLevelLow)
	require.ErrorAs(t, completed.Cancel("rev-1", "Dana", "late"), &stateErr)
}

func TestWorkItemRefreshCycle(t *testing.T) {
	t.Run("schedule refresh requires COMPLETED", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		var stateErr *StateError
		require.ErrorAs(t, w.ScheduleRefresh(time.Now().AddDate(1, 0, 0), "rev-1", "Dana"), &stateErr)
	})

	t.Run("completed item enters the refresh cycle", func(t *testing.T) {
		w := completedWorkItem(t, RiskLevelLow)
		next := time.Now().AddDate(1, 0, 0)
		require.NoError(t, w.ScheduleRefresh(next, "rev-1", "Dana"))
		require.NotNil(t, w.NextRefreshDate)
		assert.Equal(t, next, *w.NextRefreshDate)

		require.NoError(t, w.MarkForRefresh("system", "scheduler"))
		assert.Equal(t, WorkItemStatusDueForRefresh, w.Status)
		assert.Equal(t, 1, w.RefreshCount)
		assert.NotNil(t, w.LastRefreshedAt)
	})

	t.Run("mark for refresh requires COMPLETED", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		var stateErr *StateError
		require.ErrorAs(t, w.MarkForRefresh("system", "scheduler"), &stateErr)
	})
}

func TestWorkItemComments(t *testing.T) {
	w := newTestWorkItem(t, RiskLevelLow)
	statusBefore := w.Status

	comment, err := w.AddComment("verified registry extract", "rev-1", "Dana")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, statusBefore, w.Status)

	comments := w.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, "verified registry extract", comments[0].Body)

	_, err = w.AddComment("   ", "rev-1", "Dana")
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
}

func TestWorkItemUpdatePriority(t *testing.T) {
	t.Run("no-op when unchanged", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		historyLen := len(w.History())
		eventsLen := len(w.PendingEvents())

		require.NoError(t, w.UpdatePriority(PriorityLow, "rev-1", "Dana"))
		assert.Len(t, w.History(), historyLen)
		assert.Len(t, w.PendingEvents(), eventsLen)
	})

	t.Run("records the change", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		require.NoError(t, w.UpdatePriority(PriorityHigh, "rev-1", "Dana"))

		assert.Equal(t, PriorityHigh, w.Priority)
		history := w.History()
		assert.Equal(t, ActionPriorityChanged, history[len(history)-1].Action)
	})
}

func TestWorkItemAuditInvariants(t *testing.T) {
	t.Run("each mutation appends one history entry and one event", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelHigh)
		mutations := []func() error{
			func() error { return w.AssignTo("rev-1", "Dana", "lead-1", "Sam") },
			func() error { return w.StartReview("rev-1", "Dana") },
			func() error { return w.SubmitForApproval("rev-1", "Dana") },
			func() error { return w.Approve("mgr-1", "Noor", RoleAdmin, "") },
			func() error { return w.Complete("rev-1", "Dana", "") },
		}

		for i, mutate := range mutations {
			before := len(w.History())
			eventsBefore := len(w.PendingEvents())
			require.NoError(t, mutate(), "mutation %d", i)
			assert.Equal(t, before+1, len(w.History()), "mutation %d", i)
			assert.Equal(t, eventsBefore+1, len(w.PendingEvents()), "mutation %d", i)
		}
	})

	t.Run("failed operations leave the trail untouched", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		before := len(w.History())

		err := w.StartReview("rev-1", "Dana")
		require.Error(t, err)
		assert.Len(t, w.History(), before)
		assert.Len(t, w.PendingEvents(), 1)
	})

	t.Run("drain clears the event buffer", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))

		drained := w.DrainEvents()
		assert.Len(t, drained, 2)
		assert.Empty(t, w.PendingEvents())
		assert.Empty(t, w.DrainEvents())
	})

	t.Run("drain history returns only unsaved entries", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		first := w.DrainHistory()
		require.Len(t, first, 1)

		require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
		second := w.DrainHistory()
		require.Len(t, second, 1)
		assert.Equal(t, ActionAssigned, second[0].Action)

		// Full trail remains available and ordered.
		assert.Len(t, w.History(), 2)
	})

	t.Run("accessors return copies", func(t *testing.T) {
		w := newTestWorkItem(t, RiskLevelLow)
		history := w.History()
		history[0].Action = "TAMPERED"
		assert.Equal(t, ActionCreated, w.History()[0].Action)
	})
}

func TestWorkItemErrorKinds(t *testing.T) {
	w := newTestWorkItem(t, RiskLevelHigh)
	require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
	require.NoError(t, w.StartReview("rev-1", "Dana"))
	require.NoError(t, w.SubmitForApproval("rev-1", "Dana"))

	authFailure := w.Approve("rev-1", "Dana", RoleAnalyst, "")
	stateFailure := w.StartReview("rev-1", "Dana")

	var authErr *AuthorizationError
	var stateErr *StateError
	require.ErrorAs(t, authFailure, &authErr)
	require.ErrorAs(t, stateFailure, &stateErr)

	// The kinds never alias each other.
	assert.False(t, errors.As(authFailure, &stateErr))
}

func completedWorkItem(t *testing.T, risk RiskLevel) *WorkItem {
	t.Helper()
	w := newTestWorkItem(t, risk)
	require.NoError(t, w.AssignTo("rev-1", "Dana", "lead-1", "Sam"))
	require.NoError(t, w.StartReview("rev-1", "Dana"))
	if w.RequiresApproval {
		require.NoError(t, w.SubmitForApproval("rev-1", "Dana"))
		require.NoError(t, w.Approve("mgr-1", "Noor", RoleComplianceManager, ""))
	}
	require.NoError(t, w.Complete("rev-1", "Dana", ""))
	return w
}
