package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/onboarding-service/internal/api/http"
	"github.com/spec-kit/onboarding-service/internal/api/http/handlers"
	"github.com/spec-kit/onboarding-service/internal/auth"
	"github.com/spec-kit/onboarding-service/internal/config"
	"github.com/spec-kit/onboarding-service/internal/events"
	"github.com/spec-kit/onboarding-service/internal/observability"
	"github.com/spec-kit/onboarding-service/internal/persistence"
	"github.com/spec-kit/onboarding-service/internal/repository"
	"github.com/spec-kit/onboarding-service/internal/service"
	"github.com/spec-kit/onboarding-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	workItemRepo := repository.NewWorkItemRepository(pool)
	historyRepo := repository.NewWorkItemHistoryRepository(pool)
	commentRepo := repository.NewWorkItemCommentRepository(pool)
	checklistRepo := repository.NewChecklistRepository(pool)
	templateRepo := repository.NewChecklistTemplateRepository(pool)
	reviewerRepo := repository.NewReviewerRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	streamPublisher := events.NewStreamPublisher(redis.Client, events.DefaultStream, logger)
	publisher := events.NewFanout(dispatcher, streamPublisher)

	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		WorkItemRepo: workItemRepo,
		HistoryRepo:  historyRepo,
		CommentRepo:  commentRepo,
		ReviewerRepo: reviewerRepo,
		Publisher:    publisher,
	}, cfg.Workflow.DefaultSLADays)
	checklistService := service.NewChecklistService(checklistRepo, templateRepo, publisher)
	authService := service.NewAuthService(*cfg, reviewerRepo, resetRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartRefreshWorker(ctx, workflowService, logger,
		cfg.Workflow.RefreshSweepInterval(), cfg.Workflow.RefreshSweepBatchSize)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), reviewerRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		WorkItems:      handlers.NewWorkItemsHandler(workflowService),
		Checklists:     handlers.NewChecklistsHandler(checklistService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
