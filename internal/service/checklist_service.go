package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/events"
	"github.com/spec-kit/onboarding-service/internal/repository"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

// ChecklistService manages requirement checklists for onboarding cases.
type ChecklistService struct {
	checklists repository.ChecklistRepository
	templates  repository.ChecklistTemplateRepository
	publisher  events.Publisher
}

// ChecklistProgress is a read model over one checklist.
type ChecklistProgress struct {
	ChecklistID                  string
	OwnerRef                     string
	Status                       domain.ChecklistStatus
	CompletionPercentage         float64
	RequiredCompletionPercentage float64
	TotalScore                   int
}

// NewChecklistService constructs the service.
func NewChecklistService(
	checklists repository.ChecklistRepository,
	templates repository.ChecklistTemplateRepository,
	publisher events.Publisher,
) *ChecklistService {
	return &ChecklistService{
		checklists: checklists,
		templates:  templates,
		publisher:  publisher,
	}
}

// CreateChecklist instantiates a checklist for a case from the active
// templates of the given type.
func (s *ChecklistService) CreateChecklist(ctx context.Context, ownerRef string, checklistType domain.ChecklistType) (*domain.Checklist, error) {
	if ownerRef == "" {
		return nil, apperrors.NewValidationError("owner_ref required", nil)
	}
	if checklistType != domain.ChecklistTypeIndividual && checklistType != domain.ChecklistTypeCorporate {
		return nil, apperrors.NewValidationError("unknown checklist type", map[string]any{"type": checklistType})
	}
	if existing, err := s.checklists.GetByOwnerRef(ctx, ownerRef); err == nil && existing != nil {
		return nil, apperrors.NewConflict("checklist already exists for owner", map[string]any{"owner_ref": ownerRef})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	templates, err := s.templates.ListByType(ctx, checklistType)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	checklist := domain.NewChecklist(ownerRef, checklistType, templates)
	if err := s.checklists.Create(ctx, checklist); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.dispatch(ctx, checklist.DrainEvents())
	return checklist, nil
}

// GetChecklist returns a checklist with items.
func (s *ChecklistService) GetChecklist(ctx context.Context, id string) (*domain.Checklist, error) {
	checklist, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupErr(err, id)
	}
	return checklist, nil
}

// GetChecklistByOwner returns the checklist attached to a case.
func (s *ChecklistService) GetChecklistByOwner(ctx context.Context, ownerRef string) (*domain.Checklist, error) {
	checklist, err := s.checklists.GetByOwnerRef(ctx, ownerRef)
	if err != nil {
		return nil, s.mapLookupErr(err, ownerRef)
	}
	return checklist, nil
}

// GetProgress computes completion metrics for a checklist.
func (s *ChecklistService) GetProgress(ctx context.Context, id string) (*ChecklistProgress, error) {
	checklist, err := s.GetChecklist(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ChecklistProgress{
		ChecklistID:                  checklist.ID,
		OwnerRef:                     checklist.OwnerRef,
		Status:                       checklist.Status,
		CompletionPercentage:         checklist.CompletionPercentage(),
		RequiredCompletionPercentage: checklist.RequiredCompletionPercentage(),
		TotalScore:                   checklist.TotalScore(),
	}, nil
}

// CompleteItem marks a checklist item done.
func (s *ChecklistService) CompleteItem(ctx context.Context, actor Actor, checklistID, itemID, notes string) (*domain.Checklist, error) {
	return s.mutate(ctx, checklistID, func(checklist *domain.Checklist) error {
		return checklist.CompleteItem(itemID, actor.ID, actor.Name, notes)
	})
}

// SkipItem skips an optional checklist item.
func (s *ChecklistService) SkipItem(ctx context.Context, actor Actor, checklistID, itemID, reason string) (*domain.Checklist, error) {
	return s.mutate(ctx, checklistID, func(checklist *domain.Checklist) error {
		return checklist.SkipItem(itemID, actor.ID, actor.Name, reason)
	})
}

// ResetItem returns an item to pending, for example when a submitted
// document turns out to be expired.
func (s *ChecklistService) ResetItem(ctx context.Context, actor Actor, checklistID, itemID, reason string) (*domain.Checklist, error) {
	return s.mutate(ctx, checklistID, func(checklist *domain.Checklist) error {
		return checklist.ResetItem(itemID, actor.ID, actor.Name, reason)
	})
}

func (s *ChecklistService) mutate(ctx context.Context, id string, op func(*domain.Checklist) error) (*domain.Checklist, error) {
	checklist, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupErr(err, id)
	}
	if err := op(checklist); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.checklists.Update(ctx, checklist); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.dispatch(ctx, checklist.DrainEvents())
	return checklist, nil
}

func (s *ChecklistService) mapLookupErr(err error, ref string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("checklist", map[string]any{"ref": ref})
	}
	return apperrors.MapError(err)
}

func (s *ChecklistService) dispatch(ctx context.Context, drained []domain.Event) {
	if s.publisher == nil {
		return
	}
	for _, event := range drained {
		_ = s.publisher.Publish(ctx, event)
	}
}
