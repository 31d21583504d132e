package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/service"
)

// systemActor stamps audit entries produced by the background sweep.
var systemActor = service.Actor{
	ID:   "system",
	Name: "Refresh Scheduler",
	Role: domain.RoleAdmin,
}

// StartRefreshWorker periodically marks completed cases whose next refresh
// date has passed. It runs until ctx is cancelled.
func StartRefreshWorker(ctx context.Context, workflow *service.WorkflowService, logger *zap.Logger, interval time.Duration, batchSize int) {
	if workflow == nil {
		return
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				marked, err := workflow.SweepDueRefreshes(ctx, systemActor, time.Now(), batchSize)
				if err != nil {
					logger.Warn("refresh sweep failed", zap.Int("marked", marked), zap.Error(err))
					continue
				}
				if marked > 0 {
					logger.Info("refresh sweep", zap.Int("marked", marked))
				}
			}
		}
	}()
}
