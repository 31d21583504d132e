package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/onboarding-service/internal/api/dto"
	"github.com/spec-kit/onboarding-service/internal/auth"
	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/repository"
	"github.com/spec-kit/onboarding-service/internal/service"
	apperrors "github.com/spec-kit/onboarding-service/pkg/errorutil"
)

// WorkItemsHandler manages the review pipeline endpoints.
type WorkItemsHandler struct {
	workflow *service.WorkflowService
}

// NewWorkItemsHandler constructs handler.
func NewWorkItemsHandler(workflow *service.WorkflowService) *WorkItemsHandler {
	return &WorkItemsHandler{workflow: workflow}
}

// Create POST /work-items.
func (h *WorkItemsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateWorkItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item, err := h.workflow.CreateWorkItem(c.Context(), actor, service.CreateWorkItemInput{
		CaseRef:       req.CaseRef,
		ApplicantName: req.ApplicantName,
		EntityType:    req.EntityType,
		Country:       req.Country,
		Risk:          req.RiskLevel,
		SLADays:       req.SLADays,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": workItemSummary(item)})
}

// List GET /work-items.
func (h *WorkItemsHandler) List(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	items, err := h.workflow.ListWorkItems(c.Context(), parseWorkItemQuery(c))
	if err != nil {
		return err
	}
	resp := make([]dto.WorkItemSummary, 0, len(items))
	for i := range items {
		resp = append(resp, workItemSummary(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /work-items/:id.
func (h *WorkItemsHandler) Get(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	item, err := h.workflow.GetWorkItem(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemDetail(item)})
}

// GetByNumber GET /work-items/number/:number.
func (h *WorkItemsHandler) GetByNumber(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	item, err := h.workflow.GetWorkItemByNumber(c.Context(), c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemDetail(item)})
}

// Assign POST /work-items/:id/assign.
func (h *WorkItemsHandler) Assign(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ReviewerID == "" {
		return apperrors.NewValidationError("reviewer_id required", nil)
	}
	item, err := h.workflow.AssignWorkItem(c.Context(), actor, c.Params("id"), req.ReviewerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

// Unassign POST /work-items/:id/unassign.
func (h *WorkItemsHandler) Unassign(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.workflow.UnassignWorkItem)
}

// StartReview POST /work-items/:id/start-review.
func (h *WorkItemsHandler) StartReview(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.workflow.StartReview)
}

// SubmitForApproval POST /work-items/:id/submit-approval.
func (h *WorkItemsHandler) SubmitForApproval(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.workflow.SubmitForApproval)
}

// Approve POST /work-items/:id/approve.
func (h *WorkItemsHandler) Approve(c *fiber.Ctx) error {
	return h.decision(c, h.workflow.Approve)
}

// Complete POST /work-items/:id/complete.
func (h *WorkItemsHandler) Complete(c *fiber.Ctx) error {
	return h.decision(c, h.workflow.Complete)
}

// Decline POST /work-items/:id/decline.
func (h *WorkItemsHandler) Decline(c *fiber.Ctx) error {
	return h.reasoned(c, h.workflow.Decline)
}

// Cancel POST /work-items/:id/cancel.
func (h *WorkItemsHandler) Cancel(c *fiber.Ctx) error {
	return h.reasoned(c, h.workflow.Cancel)
}

// MarkForRefresh POST /work-items/:id/refresh.
func (h *WorkItemsHandler) MarkForRefresh(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.workflow.MarkForRefresh)
}

// ScheduleRefresh POST /work-items/:id/schedule-refresh.
func (h *WorkItemsHandler) ScheduleRefresh(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleRefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NextRefreshDate.IsZero() {
		return apperrors.NewValidationError("next_refresh_date required", nil)
	}
	item, err := h.workflow.ScheduleRefresh(c.Context(), actor, c.Params("id"), req.NextRefreshDate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

// AddComment POST /work-items/:id/comments.
func (h *WorkItemsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.workflow.AddComment(c.Context(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": workItemDetail(item)})
}

// UpdatePriority PATCH /work-items/:id/priority.
func (h *WorkItemsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Priority == "" {
		return apperrors.NewValidationError("priority required", nil)
	}
	item, err := h.workflow.UpdatePriority(c.Context(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

// ListHistory GET /work-items/:id/history.
func (h *WorkItemsHandler) ListHistory(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return err
	}
	entries, err := h.workflow.ListHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

func (h *WorkItemsHandler) simpleTransition(c *fiber.Ctx, fn func(ctx context.Context, actor service.Actor, id string) (*domain.WorkItem, error)) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	item, err := fn(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

func (h *WorkItemsHandler) decision(c *fiber.Ctx, fn func(ctx context.Context, actor service.Actor, id, notes string) (*domain.WorkItem, error)) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DecisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	item, err := fn(c.Context(), actor, c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

func (h *WorkItemsHandler) reasoned(c *fiber.Ctx, fn func(ctx context.Context, actor service.Actor, id, reason string) (*domain.WorkItem, error)) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ReasonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	item, err := fn(c.Context(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

func actorFromContext(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Reviewer == nil {
		return service.Actor{}, apperrors.NewUnauthorized("reviewer required")
	}
	return service.Actor{
		ID:   principal.Reviewer.ID,
		Name: principal.Reviewer.Name,
		Role: principal.Role,
	}, nil
}

func parseWorkItemQuery(c *fiber.Ctx) repository.WorkItemFilter {
	filter := repository.WorkItemFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.WorkItemStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.Priority(strings.TrimSpace(part)))
		}
	}
	if riskStr := c.Query("risk"); riskStr != "" {
		for _, part := range strings.Split(riskStr, ",") {
			filter.RiskLevels = append(filter.RiskLevels, domain.RiskLevel(strings.TrimSpace(part)))
		}
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedToID = &assignee
	}
	if entityType := c.Query("entity_type"); entityType != "" {
		filter.EntityType = &entityType
	}
	if country := c.Query("country"); country != "" {
		filter.Country = &country
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func workItemSummary(item *domain.WorkItem) dto.WorkItemSummary {
	return dto.WorkItemSummary{
		ID:             item.ID,
		Number:         item.Number,
		CaseRef:        item.CaseRef,
		ApplicantName:  item.ApplicantName,
		EntityType:     item.EntityType,
		Country:        item.Country,
		Status:         item.Status,
		Priority:       item.Priority,
		RiskLevel:      item.Risk,
		AssignedToID:   item.AssignedToID,
		AssignedToName: item.AssignedToName,
		DueDate:        item.DueDate,
		Overdue:        item.IsOverdue(),
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

func workItemDetail(item *domain.WorkItem) dto.WorkItemDetailResponse {
	comments := item.Comments()
	commentResp := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		commentResp = append(commentResp, dto.CommentResponse{
			ID:         comment.ID,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.At,
		})
	}
	return dto.WorkItemDetailResponse{
		WorkItemSummary:  workItemSummary(item),
		RequiresApproval: item.RequiresApproval,
		ApprovedByID:     item.ApprovedByID,
		ApprovedByName:   item.ApprovedByName,
		ApprovedAt:       item.ApprovedAt,
		ApprovalNotes:    item.ApprovalNotes,
		RejectionReason:  item.RejectionReason,
		RejectedAt:       item.RejectedAt,
		NextRefreshDate:  item.NextRefreshDate,
		LastRefreshedAt:  item.LastRefreshedAt,
		RefreshCount:     item.RefreshCount,
		CreatedByID:      item.CreatedByID,
		CreatedByName:    item.CreatedByName,
		Comments:         commentResp,
		History:          historyResponses(item.History()),
	}
}

func historyResponses(entries []domain.HistoryEntry) []dto.HistoryEntryResponse {
	resp := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistoryEntryResponse{
			Action:     entry.Action,
			ActorID:    entry.ActorID,
			ActorName:  entry.ActorName,
			Notes:      entry.Notes,
			OccurredAt: entry.At,
		})
	}
	return resp
}
