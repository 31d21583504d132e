package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/onboarding-service/internal/api/http/handlers"
	"github.com/spec-kit/onboarding-service/internal/auth"
	"github.com/spec-kit/onboarding-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	WorkItems      *handlers.WorkItemsHandler
	Checklists     *handlers.ChecklistsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/register", auth.RequireRole(domain.RoleAdmin), cfg.Auth.Register)
	authProtected.Post("/password/change", auth.RequireRole(), cfg.Auth.ChangePassword)

	workItems := app.Group("/work-items", cfg.AuthMiddleware.Handle, auth.RequireRole())
	workItems.Post("", cfg.WorkItems.Create)
	workItems.Get("", cfg.WorkItems.List)
	workItems.Get("/number/:number", cfg.WorkItems.GetByNumber)
	workItems.Get("/:id", cfg.WorkItems.Get)
	workItems.Get("/:id/history", cfg.WorkItems.ListHistory)
	workItems.Post("/:id/assign", cfg.WorkItems.Assign)
	workItems.Post("/:id/unassign", cfg.WorkItems.Unassign)
	workItems.Post("/:id/start-review", cfg.WorkItems.StartReview)
	workItems.Post("/:id/submit-approval", cfg.WorkItems.SubmitForApproval)
	workItems.Post("/:id/approve", cfg.WorkItems.Approve)
	workItems.Post("/:id/complete", cfg.WorkItems.Complete)
	workItems.Post("/:id/decline", cfg.WorkItems.Decline)
	workItems.Post("/:id/cancel", cfg.WorkItems.Cancel)
	workItems.Post("/:id/schedule-refresh", cfg.WorkItems.ScheduleRefresh)
	workItems.Post("/:id/refresh", cfg.WorkItems.MarkForRefresh)
	workItems.Post("/:id/comments", cfg.WorkItems.AddComment)
	workItems.Patch("/:id/priority", cfg.WorkItems.UpdatePriority)

	checklists := app.Group("/checklists", cfg.AuthMiddleware.Handle, auth.RequireRole())
	checklists.Post("", cfg.Checklists.Create)
	checklists.Get("/owner/:ownerRef", cfg.Checklists.GetByOwner)
	checklists.Get("/:id", cfg.Checklists.Get)
	checklists.Get("/:id/progress", cfg.Checklists.GetProgress)
	checklists.Post("/:id/items/:itemId/complete", cfg.Checklists.CompleteItem)
	checklists.Post("/:id/items/:itemId/skip", cfg.Checklists.SkipItem)
	checklists.Post("/:id/items/:itemId/reset", cfg.Checklists.ResetItem)
}
