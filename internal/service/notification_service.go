package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/config"
	"github.com/spec-kit/tutoring-portal/internal/events"
)

// NotificationService announces ticket lifecycle events in the log and, when
// configured, to a webhook.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger, cfg: cfg}
}

// Notify handles one lifecycle event.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.Int64("ticket_id", event.TicketID)}
	switch payload := event.Payload.(type) {
	case events.TicketOpenedPayload:
		fields = append(fields, zap.Int64("section_id", payload.SectionID))
		n.logger.Info("ticket opened", fields...)
	case events.TicketStatusChangedPayload:
		fields = append(fields,
			zap.String("actor", event.Actor),
			zap.String("from", string(payload.OldStatus)),
			zap.String("to", string(payload.NewStatus)))
		n.logger.Info("ticket status changed", fields...)
	default:
		n.logger.Info(string(event.Type), append(fields, zap.Any("payload", event.Payload))...)
	}
	return n.sendWebhook(ctx, event)
}

// sendWebhook POSTs the event as JSON when a webhook is configured.
func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Post(url)
	agent.Set("X-Event-Type", string(event.Type))
	agent.JSON(event)
	agent.Timeout(n.cfg.WebhookTimeout())

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		n.logger.Warn("webhook delivery failed", zap.String("event_id", event.ID), zap.Errors("errors", errs))
		return errors.Join(errs...)
	}
	if code >= 300 {
		n.logger.Warn("webhook rejected event", zap.String("event_id", event.ID), zap.Int("status", code))
		return fmt.Errorf("webhook responded %d", code)
	}
	n.logger.Debug("webhook delivered", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	return nil
}
