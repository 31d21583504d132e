package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/onboarding-service/internal/api/dto"
	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/service"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

// ChecklistsHandler manages requirement checklist endpoints.
type ChecklistsHandler struct {
	checklists *service.ChecklistService
}

// NewChecklistsHandler constructs handler.
func NewChecklistsHandler(checklists *service.ChecklistService) *ChecklistsHandler {
	return &ChecklistsHandler{checklists: checklists}
}

// Create POST /checklists.
func (h *ChecklistsHandler) Create(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	var req dto.CreateChecklistRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	checklist, err := h.checklists.CreateChecklist(c.Context(), req.OwnerRef, req.Type)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": checklistResponse(checklist)})
}

// Get GET /checklists/:id.
func (h *ChecklistsHandler) Get(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	checklist, err := h.checklists.GetChecklist(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": checklistResponse(checklist)})
}

// GetByOwner GET /checklists/owner/:ownerRef.
func (h *ChecklistsHandler) GetByOwner(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	checklist, err := h.checklists.GetChecklistByOwner(c.Context(), c.Params("ownerRef"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": checklistResponse(checklist)})
}

// GetProgress GET /checklists/:id/progress.
func (h *ChecklistsHandler) GetProgress(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	progress, err := h.checklists.GetProgress(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChecklistProgressResponse{
		ChecklistID:                  progress.ChecklistID,
		OwnerRef:                     progress.OwnerRef,
		Status:                       progress.Status,
		CompletionPercentage:         progress.CompletionPercentage,
		RequiredCompletionPercentage: progress.RequiredCompletionPercentage,
		TotalScore:                   progress.TotalScore,
	}})
}

// CompleteItem POST /checklists/:id/items/:itemId/complete.
func (h *ChecklistsHandler) CompleteItem(c *fiber.Ctx) error {
	return h.itemAction(c, func(actor service.Actor, checklistID, itemID string, req dto.ChecklistItemActionRequest) (*domain.Checklist, error) {
		return h.checklists.CompleteItem(c.Context(), actor, checklistID, itemID, req.Notes)
	})
}

// SkipItem POST /checklists/:id/items/:itemId/skip.
func (h *ChecklistsHandler) SkipItem(c *fiber.Ctx) error {
	return h.itemAction(c, func(actor service.Actor, checklistID, itemID string, req dto.ChecklistItemActionRequest) (*domain.Checklist, error) {
		return h.checklists.SkipItem(c.Context(), actor, checklistID, itemID, req.Reason)
	})
}

// ResetItem POST /checklists/:id/items/:itemId/reset.
func (h *ChecklistsHandler) ResetItem(c *fiber.Ctx) error {
	return h.itemAction(c, func(actor service.Actor, checklistID, itemID string, req dto.ChecklistItemActionRequest) (*domain.Checklist, error) {
		return h.checklists.ResetItem(c.Context(), actor, checklistID, itemID, req.Reason)
	})
}

func (h *ChecklistsHandler) itemAction(c *fiber.Ctx, fn func(actor service.Actor, checklistID, itemID string, req dto.ChecklistItemActionRequest) (*domain.Checklist, error)) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ChecklistItemActionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	checklist, err := fn(actor, c.Params("id"), c.Params("itemId"), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": checklistResponse(checklist)})
}

func checklistResponse(checklist *domain.Checklist) dto.ChecklistResponse {
	items := checklist.Items()
	itemResp := make([]dto.ChecklistItemResponse, 0, len(items))
	for _, item := range items {
		itemResp = append(itemResp, dto.ChecklistItemResponse{
			ID:              item.ID,
			Code:            item.Code,
			Name:            item.Name,
			Description:     item.Description,
			Category:        item.Category,
			Required:        item.Required,
			SortOrder:       item.SortOrder,
			Status:          item.Status,
			CompletedByID:   item.CompletedByID,
			CompletedByName: item.CompletedByName,
			CompletedAt:     item.CompletedAt,
			Notes:           item.Notes,
			SkipReason:      item.SkipReason,
		})
	}
	return dto.ChecklistResponse{
		ID:          checklist.ID,
		OwnerRef:    checklist.OwnerRef,
		Type:        checklist.Type,
		Status:      checklist.Status,
		CompletedAt: checklist.CompletedAt,
		CreatedAt:   checklist.CreatedAt,
		UpdatedAt:   checklist.UpdatedAt,
		Items:       itemResp,
	}
}
