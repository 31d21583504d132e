package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/onboarding-service/internal/config"
	"github.com/spec-kit/onboarding-service/internal/domain"
	"github.com/spec-kit/onboarding-service/internal/events"
)

// NotificationService emits notifications for workflow events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to workflow events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(domain.EventWorkItemCreated, n.handleWorkItemCreated)
	n.dispatcher.Subscribe(domain.EventWorkItemAssigned, n.handleWorkItemAssigned)
	n.dispatcher.Subscribe(domain.EventWorkItemApproved, n.handleDecision)
	n.dispatcher.Subscribe(domain.EventWorkItemDeclined, n.handleDecision)
	n.dispatcher.Subscribe(domain.EventWorkItemCompleted, n.handleDecision)
	n.dispatcher.Subscribe(domain.EventWorkItemMarkedForRefresh, n.handleRefreshDue)
	n.dispatcher.Subscribe(domain.EventChecklistCompleted, n.handleChecklistCompleted)
}

func (n *NotificationService) handleWorkItemCreated(ctx context.Context, event domain.Event) error {
	n.logger.Info("WorkItemCreated", zap.String("work_item_id", event.AggregateID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleWorkItemAssigned(ctx context.Context, event domain.Event) error {
	n.logger.Info("WorkItemAssigned", zap.String("work_item_id", event.AggregateID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleDecision(ctx context.Context, event domain.Event) error {
	n.logger.Info("WorkItemDecision",
		zap.String("work_item_id", event.AggregateID),
		zap.String("event_type", string(event.Type)),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleRefreshDue(ctx context.Context, event domain.Event) error {
	n.logger.Info("WorkItemRefreshDue", zap.String("work_item_id", event.AggregateID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleChecklistCompleted(ctx context.Context, event domain.Event) error {
	n.logger.Info("ChecklistCompleted", zap.String("checklist_id", event.AggregateID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event domain.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("aggregate_id", event.AggregateID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event domain.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("aggregate_id", event.AggregateID),
		zap.String("event_type", string(event.Type)))
}
