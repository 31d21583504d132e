package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/repository"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

type fakeWorkItemRepo struct {
	items map[string]*domain.WorkItem
}

func newFakeWorkItemRepo() *fakeWorkItemRepo {
	return &fakeWorkItemRepo{items: make(map[string]*domain.WorkItem)}
}

func (r *fakeWorkItemRepo) Create(_ context.Context, item *domain.WorkItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *fakeWorkItemRepo) Update(_ context.Context, item *domain.WorkItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeWorkItemRepo) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return item, nil
}

func (r *fakeWorkItemRepo) GetByNumber(_ context.Context, number string) (*domain.WorkItem, error) {
	for _, item := range r.items {
		if item.Number == number {
			return item, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeWorkItemRepo) ListWithFilter(_ context.Context, filter repository.WorkItemFilter) ([]domain.WorkItem, error) {
	var out []domain.WorkItem
	for _, item := range r.items {
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if item.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *fakeWorkItemRepo) ListDueForRefresh(_ context.Context, before time.Time, _ int) ([]domain.WorkItem, error) {
	var out []domain.WorkItem
	for _, item := range r.items {
		if item.Status == domain.WorkItemStatusCompleted &&
			item.NextRefreshDate != nil && item.NextRefreshDate.Before(before) {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	entries map[string][]domain.HistoryEntry
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: make(map[string][]domain.HistoryEntry)}
}

func (r *fakeHistoryRepo) Append(_ context.Context, workItemID string, entries []domain.HistoryEntry) error {
	r.entries[workItemID] = append(r.entries[workItemID], entries...)
	return nil
}

func (r *fakeHistoryRepo) ListByWorkItem(_ context.Context, workItemID string) ([]domain.HistoryEntry, error) {
	return r.entries[workItemID], nil
}

type fakeCommentRepo struct {
	comments map[string][]domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string][]domain.Comment)}
}

func (r *fakeCommentRepo) Create(_ context.Context, workItemID string, comment *domain.Comment) error {
	r.comments[workItemID] = append(r.comments[workItemID], *comment)
	return nil
}

func (r *fakeCommentRepo) ListByWorkItem(_ context.Context, workItemID string) ([]domain.Comment, error) {
	return r.comments[workItemID], nil
}

type fakeReviewerRepo struct {
	reviewers map[string]*domain.Reviewer
}

func newFakeReviewerRepo(reviewers ...*domain.Reviewer) *fakeReviewerRepo {
	repo := &fakeReviewerRepo{reviewers: make(map[string]*domain.Reviewer)}
	for _, reviewer := range reviewers {
		repo.reviewers[reviewer.ID] = reviewer
	}
	return repo
}

func (r *fakeReviewerRepo) Create(_ context.Context, reviewer *domain.Reviewer) error {
	r.reviewers[reviewer.ID] = reviewer
	return nil
}

func (r *fakeReviewerRepo) Update(_ context.Context, reviewer *domain.Reviewer) error {
	if _, ok := r.reviewers[reviewer.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.reviewers[reviewer.ID] = reviewer
	return nil
}

func (r *fakeReviewerRepo) GetByID(_ context.Context, id string) (*domain.Reviewer, error) {
	reviewer, ok := r.reviewers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return reviewer, nil
}

func (r *fakeReviewerRepo) GetByEmail(_ context.Context, email string) (*domain.Reviewer, error) {
	for _, reviewer := range r.reviewers {
		if reviewer.Email == email {
			return reviewer, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeReviewerRepo) List(_ context.Context, _ repository.ReviewerFilter) ([]domain.Reviewer, error) {
	var out []domain.Reviewer
	for _, reviewer := range r.reviewers {
		out = append(out, *reviewer)
	}
	return out, nil
}

type capturePublisher struct {
	published []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, event domain.Event) error {
	p.published = append(p.published, event)
	return nil
}

type workflowFixture struct {
	svc       *WorkflowService
	items     *fakeWorkItemRepo
	history   *fakeHistoryRepo
	comments  *fakeCommentRepo
	reviewers *fakeReviewerRepo
	publisher *capturePublisher
}

func newWorkflowFixture(reviewers ...*domain.Reviewer) *workflowFixture {
	f := &workflowFixture{
		items:     newFakeWorkItemRepo(),
		history:   newFakeHistoryRepo(),
		comments:  newFakeCommentRepo(),
		reviewers: newFakeReviewerRepo(reviewers...),
		publisher: &capturePublisher{},
	}
	f.svc = NewWorkflowService(WorkflowDependencies{
		WorkItemRepo: f.items,
		HistoryRepo:  f.history,
		CommentRepo:  f.comments,
		ReviewerRepo: f.reviewers,
		Publisher:    f.publisher,
	}, 7)
	return f
}

var (
	analystActor = Actor{ID: "rev-1", Name: "Mara", Role: domain.RoleAnalyst}
	managerActor = Actor{ID: "rev-2", Name: "Noor", Role: domain.RoleComplianceManager}

	analystReviewer = &domain.Reviewer{ID: "rev-1", Name: "Mara", Email: "mara@example.com", Role: domain.RoleAnalyst, Active: true}
	managerReviewer = &domain.Reviewer{ID: "rev-2", Name: "Noor", Email: "noor@example.com", Role: domain.RoleComplianceManager, Active: true}
)

func TestCreateWorkItem(t *testing.T) {
	f := newWorkflowFixture()

	item, err := f.svc.CreateWorkItem(context.Background(), analystActor, CreateWorkItemInput{
		CaseRef:       "case-77",
		ApplicantName: "Acme GmbH",
		EntityType:    "CORPORATE",
		Country:       "DE",
		Risk:          domain.RiskLevelHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.WorkItemStatusNew, item.Status)
	assert.True(t, item.RequiresApproval)
	assert.Len(t, f.history.entries[item.ID], 1)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, domain.EventWorkItemCreated, f.publisher.published[0].Type)

	t.Run("missing case ref rejected", func(t *testing.T) {
		_, err := f.svc.CreateWorkItem(context.Background(), analystActor, CreateWorkItemInput{})
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "VALIDATION_FAILED", de.Code)
	})

	t.Run("blank risk defaults to unknown", func(t *testing.T) {
		item, err := f.svc.CreateWorkItem(context.Background(), analystActor, CreateWorkItemInput{CaseRef: "case-78"})
		require.NoError(t, err)
		assert.Equal(t, domain.RiskLevelUnknown, item.Risk)
		assert.Equal(t, domain.PriorityMedium, item.Priority)
	})
}

func TestAssignWorkItem(t *testing.T) {
	f := newWorkflowFixture(analystReviewer, managerReviewer)
	item := mustCreate(t, f, domain.RiskLevelLow)

	updated, err := f.svc.AssignWorkItem(context.Background(), managerActor, item.ID, analystReviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkItemStatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedToID)
	assert.Equal(t, analystReviewer.ID, *updated.AssignedToID)
	assert.Len(t, f.history.entries[item.ID], 2)

	t.Run("unknown reviewer", func(t *testing.T) {
		_, err := f.svc.AssignWorkItem(context.Background(), managerActor, item.ID, "ghost")
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "NOT_FOUND", de.Code)
	})

	t.Run("inactive reviewer", func(t *testing.T) {
		inactive := &domain.Reviewer{ID: "rev-9", Name: "Idle", Role: domain.RoleAnalyst, Active: false}
		f.reviewers.reviewers[inactive.ID] = inactive

		_, err := f.svc.AssignWorkItem(context.Background(), managerActor, item.ID, inactive.ID)
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "CONFLICT", de.Code)
	})

	t.Run("unknown work item", func(t *testing.T) {
		_, err := f.svc.AssignWorkItem(context.Background(), managerActor, "missing", analystReviewer.ID)
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "NOT_FOUND", de.Code)
	})
}

func TestHighRiskPipeline(t *testing.T) {
	f := newWorkflowFixture(analystReviewer, managerReviewer)
	item := mustCreate(t, f, domain.RiskLevelHigh)
	ctx := context.Background()

	_, err := f.svc.AssignWorkItem(ctx, managerActor, item.ID, analystReviewer.ID)
	require.NoError(t, err)
	_, err = f.svc.StartReview(ctx, analystActor, item.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitForApproval(ctx, analystActor, item.ID)
	require.NoError(t, err)

	t.Run("analyst cannot approve", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, analystActor, item.ID, "looks fine")
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "FORBIDDEN", de.Code)

		stored := f.items.items[item.ID]
		assert.Equal(t, domain.WorkItemStatusPendingApproval, stored.Status)
	})

	approved, err := f.svc.Approve(ctx, managerActor, item.ID, "docs verified")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkItemStatusApproved, approved.Status)

	completed, err := f.svc.Complete(ctx, analystActor, item.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkItemStatusCompleted, completed.Status)

	// One history row and one published event per successful mutation,
	// including creation.
	assert.Len(t, f.history.entries[item.ID], 6)
	assert.Len(t, f.publisher.published, 6)
}

func TestDecline(t *testing.T) {
	f := newWorkflowFixture(analystReviewer)
	item := mustCreate(t, f, domain.RiskLevelMedium)
	ctx := context.Background()

	t.Run("blank reason maps to validation failure", func(t *testing.T) {
		_, err := f.svc.Decline(ctx, analystActor, item.ID, "   ")
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "VALIDATION_FAILED", de.Code)
	})

	declined, err := f.svc.Decline(ctx, analystActor, item.ID, "sanctions hit")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkItemStatusDeclined, declined.Status)

	t.Run("terminal item rejects further mutation", func(t *testing.T) {
		_, err := f.svc.Cancel(ctx, analystActor, item.ID, "too late")
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATE", de.Code)
	})
}

func TestAddComment(t *testing.T) {
	f := newWorkflowFixture(analystReviewer)
	item := mustCreate(t, f, domain.RiskLevelLow)

	_, err := f.svc.AddComment(context.Background(), analystActor, item.ID, "requested updated registry extract")
	require.NoError(t, err)
	require.Len(t, f.comments.comments[item.ID], 1)
	assert.Equal(t, "requested updated registry extract", f.comments.comments[item.ID][0].Body)

	t.Run("blank body rejected before persistence", func(t *testing.T) {
		_, err := f.svc.AddComment(context.Background(), analystActor, item.ID, "  ")
		require.Error(t, err)
		assert.Len(t, f.comments.comments[item.ID], 1)
	})
}

func TestSweepDueRefreshes(t *testing.T) {
	f := newWorkflowFixture(analystReviewer)
	ctx := context.Background()

	item := mustCreate(t, f, domain.RiskLevelLow)
	_, err := f.svc.AssignWorkItem(ctx, analystActor, item.ID, analystReviewer.ID)
	require.NoError(t, err)
	_, err = f.svc.StartReview(ctx, analystActor, item.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, analystActor, item.ID, "")
	require.NoError(t, err)
	_, err = f.svc.ScheduleRefresh(ctx, analystActor, item.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	marked, err := f.svc.SweepDueRefreshes(ctx, managerActor, time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	stored := f.items.items[item.ID]
	assert.Equal(t, domain.WorkItemStatusDueForRefresh, stored.Status)
	assert.Equal(t, 1, stored.RefreshCount)

	t.Run("second sweep finds nothing", func(t *testing.T) {
		marked, err := f.svc.SweepDueRefreshes(ctx, managerActor, time.Now(), 10)
		require.NoError(t, err)
		assert.Zero(t, marked)
	})
}

func TestListHistoryOrdersAuditTrail(t *testing.T) {
	f := newWorkflowFixture(analystReviewer)
	item := mustCreate(t, f, domain.RiskLevelLow)
	ctx := context.Background()

	_, err := f.svc.AssignWorkItem(ctx, managerActor, item.ID, analystReviewer.ID)
	require.NoError(t, err)

	entries, err := f.svc.ListHistory(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionCreated, entries[0].Action)
	assert.Equal(t, domain.ActionAssigned, entries[1].Action)
}

func mustCreate(t *testing.T, f *workflowFixture, risk domain.RiskLevel) *domain.WorkItem {
	t.Helper()
	item, err := f.svc.CreateWorkItem(context.Background(), analystActor, CreateWorkItemInput{
		CaseRef:       "case-1",
		ApplicantName: "Test Applicant",
		EntityType:    "INDIVIDUAL",
		Country:       "NL",
		Risk:          risk,
	})
	require.NoError(t, err)
	return item
}
