package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/events"
	"github.com/spec-kit/onboarding-service/internal/repository"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

// Actor identifies the caller of a state-changing operation.
type Actor struct {
	ID   string
	Name string
	Role domain.ReviewerRole
}

// WorkflowService coordinates the work item review pipeline. It owns the
// transaction boundary: load one aggregate, apply one operation, persist,
// then drain and dispatch the buffered events.
type WorkflowService struct {
	items          repository.WorkItemRepository
	history        repository.WorkItemHistoryRepository
	comments       repository.WorkItemCommentRepository
	reviewers      repository.ReviewerRepository
	publisher      events.Publisher
	defaultSLADays int
}

// WorkflowDependencies bundles repositories for the workflow service.
type WorkflowDependencies struct {
	WorkItemRepo repository.WorkItemRepository
	HistoryRepo  repository.WorkItemHistoryRepository
	CommentRepo  repository.WorkItemCommentRepository
	ReviewerRepo repository.ReviewerRepository
	Publisher    events.Publisher
}

// CreateWorkItemInput describes the intake payload from case management.
type CreateWorkItemInput struct {
	CaseRef       string
	ApplicantName string
	EntityType    string
	Country       string
	Risk          domain.RiskLevel
	SLADays       int
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies, defaultSLADays int) *WorkflowService {
	if defaultSLADays <= 0 {
		defaultSLADays = domain.DefaultSLADays
	}
	return &WorkflowService{
		items:          deps.WorkItemRepo,
		history:        deps.HistoryRepo,
		comments:       deps.CommentRepo,
		reviewers:      deps.ReviewerRepo,
		publisher:      deps.Publisher,
		defaultSLADays: defaultSLADays,
	}
}

// CreateWorkItem opens a review pipeline for a submitted application.
func (s *WorkflowService) CreateWorkItem(ctx context.Context, actor Actor, input CreateWorkItemInput) (*domain.WorkItem, error) {
	if input.CaseRef == "" {
		return nil, apperrors.NewValidationError("case_ref required", nil)
	}
	risk := input.Risk
	if risk == "" {
		risk = domain.RiskLevelUnknown
	}
	sla := input.SLADays
	if sla <= 0 {
		sla = s.defaultSLADays
	}

	item := domain.NewWorkItem(domain.NewWorkItemInput{
		CaseRef:       input.CaseRef,
		ApplicantName: input.ApplicantName,
		EntityType:    input.EntityType,
		Country:       input.Country,
		Risk:          risk,
		CreatedByID:   actor.ID,
		CreatedByName: actor.Name,
		SLADays:       sla,
	})

	if err := s.items.Create(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.history.Append(ctx, item.ID, item.DrainHistory()); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.dispatch(ctx, item.DrainEvents())
	return item, nil
}

// GetWorkItem returns a fully hydrated work item.
func (s *WorkflowService) GetWorkItem(ctx context.Context, id string) (*domain.WorkItem, error) {
	return s.load(ctx, id)
}

// GetWorkItemByNumber looks a work item up by its human-readable number.
func (s *WorkflowService) GetWorkItemByNumber(ctx context.Context, number string) (*domain.WorkItem, error) {
	item, err := s.items.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.mapLookupErr(err, number)
	}
	return s.hydrate(ctx, item)
}

// ListWorkItems returns the review queue.
func (s *WorkflowService) ListWorkItems(ctx context.Context, filter repository.WorkItemFilter) ([]domain.WorkItem, error) {
	items, err := s.items.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListHistory returns the ordered audit trail for a work item.
func (s *WorkflowService) ListHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	if _, err := s.items.GetByID(ctx, id); err != nil {
		return nil, s.mapLookupErr(err, id)
	}
	entries, err := s.history.ListByWorkItem(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// AssignWorkItem assigns the work item to an active reviewer.
func (s *WorkflowService) AssignWorkItem(ctx context.Context, actor Actor, id, assigneeID string) (*domain.WorkItem, error) {
	assignee, err := s.reviewers.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reviewer", map[string]any{"reviewer_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("reviewer inactive", map[string]any{"reviewer_id": assigneeID})
	}
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.AssignTo(assignee.ID, assignee.Name, actor.ID, actor.Name)
	})
}

// UnassignWorkItem returns the work item to the unassigned queue.
func (s *WorkflowService) UnassignWorkItem(ctx context.Context, actor Actor, id string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.Unassign(actor.ID, actor.Name)
	})
}

// StartReview begins working an assigned case.
func (s *WorkflowService) StartReview(ctx context.Context, actor Actor, id string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.StartReview(actor.ID, actor.Name)
	})
}

// SubmitForApproval sends a reviewed case to the compliance gate.
func (s *WorkflowService) SubmitForApproval(ctx context.Context, actor Actor, id string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.SubmitForApproval(actor.ID, actor.Name)
	})
}

// Approve records compliance approval by the acting reviewer.
func (s *WorkflowService) Approve(ctx context.Context, actor Actor, id, notes string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.Approve(actor.ID, actor.Name, actor.Role, notes)
	})
}

// Complete finishes the review.
func (s *WorkflowService) Complete(ctx context.Context, actor Actor, id, notes string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.Complete(actor.ID, actor.Name, notes)
	})
}

// Decline rejects the case with a mandatory reason.
func (s *WorkflowService) Decline(ctx context.Context, actor Actor, id, reason string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.Decline(actor.ID, actor.Name, reason)
	})
}

// Cancel withdraws the case from the pipeline.
func (s *WorkflowService) Cancel(ctx context.Context, actor Actor, id, reason string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.Cancel(actor.ID, actor.Name, reason)
	})
}

// ScheduleRefresh sets the next re-verification date.
func (s *WorkflowService) ScheduleRefresh(ctx context.Context, actor Actor, id string, date time.Time) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.ScheduleRefresh(date, actor.ID, actor.Name)
	})
}

// MarkForRefresh moves a completed case into the re-verification cycle.
func (s *WorkflowService) MarkForRefresh(ctx context.Context, actor Actor, id string) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.MarkForRefresh(actor.ID, actor.Name)
	})
}

// AddComment appends a reviewer comment to the work item.
func (s *WorkflowService) AddComment(ctx context.Context, actor Actor, id, body string) (*domain.WorkItem, error) {
	var comment domain.Comment
	item, err := s.mutate(ctx, id, func(item *domain.WorkItem) error {
		created, err := item.AddComment(body, actor.ID, actor.Name)
		if err != nil {
			return err
		}
		comment = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.comments.Create(ctx, item.ID, &comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// UpdatePriority changes the review priority.
func (s *WorkflowService) UpdatePriority(ctx context.Context, actor Actor, id string, priority domain.Priority) (*domain.WorkItem, error) {
	return s.mutate(ctx, id, func(item *domain.WorkItem) error {
		return item.UpdatePriority(priority, actor.ID, actor.Name)
	})
}

// SweepDueRefreshes marks completed cases whose next refresh date has
// passed. Returns how many items entered the refresh cycle.
func (s *WorkflowService) SweepDueRefreshes(ctx context.Context, actor Actor, now time.Time, limit int) (int, error) {
	due, err := s.items.ListDueForRefresh(ctx, now, limit)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	marked := 0
	for i := range due {
		if _, err := s.MarkForRefresh(ctx, actor, due[i].ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// mutate loads the aggregate, applies op, persists, and dispatches the
// drained events. Domain errors abort before any write.
func (s *WorkflowService) mutate(ctx context.Context, id string, op func(*domain.WorkItem) error) (*domain.WorkItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := op(item); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.history.Append(ctx, item.ID, item.DrainHistory()); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.dispatch(ctx, item.DrainEvents())
	return item, nil
}

func (s *WorkflowService) load(ctx context.Context, id string) (*domain.WorkItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupErr(err, id)
	}
	return s.hydrate(ctx, item)
}

func (s *WorkflowService) hydrate(ctx context.Context, item *domain.WorkItem) (*domain.WorkItem, error) {
	history, err := s.history.ListByWorkItem(ctx, item.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByWorkItem(ctx, item.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	item.Restore(history, comments)
	return item, nil
}

func (s *WorkflowService) mapLookupErr(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("work item", map[string]any{"work_item_id": id})
	}
	return apperrors.MapError(err)
}

// dispatch publishes drained events post-commit; delivery is best effort.
func (s *WorkflowService) dispatch(ctx context.Context, drained []domain.Event) {
	if s.publisher == nil {
		return
	}
	for _, event := range drained {
		_ = s.publisher.Publish(ctx, event)
	}
}
