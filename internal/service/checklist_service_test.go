package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/onboarding-service/internal/domain"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

type fakeChecklistRepo struct {
	checklists map[string]*domain.Checklist
}

func newFakeChecklistRepo() *fakeChecklistRepo {
	return &fakeChecklistRepo{checklists: make(map[string]*domain.Checklist)}
}

func (r *fakeChecklistRepo) Create(_ context.Context, checklist *domain.Checklist) error {
	r.checklists[checklist.ID] = checklist
	return nil
}

func (r *fakeChecklistRepo) Update(_ context.Context, checklist *domain.Checklist) error {
	if _, ok := r.checklists[checklist.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.checklists[checklist.ID] = checklist
	return nil
}

func (r *fakeChecklistRepo) GetByID(_ context.Context, id string) (*domain.Checklist, error) {
	checklist, ok := r.checklists[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return checklist, nil
}

func (r *fakeChecklistRepo) GetByOwnerRef(_ context.Context, ownerRef string) (*domain.Checklist, error) {
	for _, checklist := range r.checklists {
		if checklist.OwnerRef == ownerRef {
			return checklist, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeTemplateRepo struct {
	templates map[domain.ChecklistType][]domain.ItemTemplate
}

func (r *fakeTemplateRepo) ListByType(_ context.Context, checklistType domain.ChecklistType) ([]domain.ItemTemplate, error) {
	return r.templates[checklistType], nil
}

func corporateTemplates() []domain.ItemTemplate {
	return []domain.ItemTemplate{
		{Code: "REG_EXTRACT", Name: "Registry extract", Category: "documents", Required: true, SortOrder: 1},
		{Code: "UBO_DECL", Name: "UBO declaration", Category: "documents", Required: true, SortOrder: 2},
		{Code: "WEBSITE", Name: "Website review", Category: "screening", Required: false, SortOrder: 3},
	}
}

func newChecklistFixture() (*ChecklistService, *fakeChecklistRepo, *capturePublisher) {
	checklists := newFakeChecklistRepo()
	templates := &fakeTemplateRepo{templates: map[domain.ChecklistType][]domain.ItemTemplate{
		domain.ChecklistTypeCorporate: corporateTemplates(),
	}}
	publisher := &capturePublisher{}
	return NewChecklistService(checklists, templates, publisher), checklists, publisher
}

func TestCreateChecklist(t *testing.T) {
	svc, _, publisher := newChecklistFixture()
	ctx := context.Background()

	checklist, err := svc.CreateChecklist(ctx, "case-77", domain.ChecklistTypeCorporate)
	require.NoError(t, err)
	assert.Equal(t, domain.ChecklistStatusInProgress, checklist.Status)
	assert.Len(t, checklist.Items(), 3)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, domain.EventChecklistCreated, publisher.published[0].Type)

	t.Run("duplicate owner rejected", func(t *testing.T) {
		_, err := svc.CreateChecklist(ctx, "case-77", domain.ChecklistTypeCorporate)
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "CONFLICT", de.Code)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := svc.CreateChecklist(ctx, "case-78", domain.ChecklistType("PARTNERSHIP"))
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "VALIDATION_FAILED", de.Code)
	})

	t.Run("no templates completes immediately", func(t *testing.T) {
		checklist, err := svc.CreateChecklist(ctx, "case-79", domain.ChecklistTypeIndividual)
		require.NoError(t, err)
		assert.Equal(t, domain.ChecklistStatusCompleted, checklist.Status)
	})
}

func TestChecklistItemFlow(t *testing.T) {
	svc, repo, publisher := newChecklistFixture()
	ctx := context.Background()
	actor := Actor{ID: "rev-1", Name: "Mara", Role: domain.RoleAnalyst}

	checklist, err := svc.CreateChecklist(ctx, "case-80", domain.ChecklistTypeCorporate)
	require.NoError(t, err)
	items := checklist.Items()

	_, err = svc.CompleteItem(ctx, actor, checklist.ID, items[0].ID, "verified against registry")
	require.NoError(t, err)

	_, err = svc.SkipItem(ctx, actor, checklist.ID, items[2].ID, "no website")
	require.NoError(t, err)

	updated, err := svc.CompleteItem(ctx, actor, checklist.ID, items[1].ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ChecklistStatusCompleted, updated.Status)

	var completionEvents int
	for _, event := range publisher.published {
		if event.Type == domain.EventChecklistCompleted {
			completionEvents++
		}
	}
	assert.Equal(t, 1, completionEvents)

	t.Run("skip required item rejected", func(t *testing.T) {
		fresh, err := svc.CreateChecklist(ctx, "case-81", domain.ChecklistTypeCorporate)
		require.NoError(t, err)

		_, err = svc.SkipItem(ctx, actor, fresh.ID, fresh.Items()[0].ID, "skip it")
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATE", de.Code)
	})

	t.Run("reset reopens completed checklist", func(t *testing.T) {
		_, err := svc.ResetItem(ctx, actor, checklist.ID, items[0].ID, "document expired")
		require.NoError(t, err)

		stored := repo.checklists[checklist.ID]
		assert.Equal(t, domain.ChecklistStatusInProgress, stored.Status)
		assert.Nil(t, stored.CompletedAt)
	})

	t.Run("unknown checklist", func(t *testing.T) {
		_, err := svc.CompleteItem(ctx, actor, "missing", "item", "")
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "NOT_FOUND", de.Code)
	})
}

func TestGetProgress(t *testing.T) {
	svc, _, _ := newChecklistFixture()
	ctx := context.Background()
	actor := Actor{ID: "rev-1", Name: "Mara", Role: domain.RoleAnalyst}

	checklist, err := svc.CreateChecklist(ctx, "case-82", domain.ChecklistTypeCorporate)
	require.NoError(t, err)

	_, err = svc.CompleteItem(ctx, actor, checklist.ID, checklist.Items()[0].ID, "")
	require.NoError(t, err)

	progress, err := svc.GetProgress(ctx, checklist.ID)
	require.NoError(t, err)
	assert.Equal(t, checklist.OwnerRef, progress.OwnerRef)
	assert.InDelta(t, 33.33, progress.CompletionPercentage, 0.01)
	assert.InDelta(t, 50.0, progress.RequiredCompletionPercentage, 0.01)
	assert.Equal(t, 1, progress.TotalScore)
}
