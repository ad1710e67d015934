package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/events"
)

// Notifier handles a published lifecycle event.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

var lifecycleEvents = []events.EventType{
	events.EventTicketOpened,
	events.EventTicketStatusChanged,
}

// StartNotificationWorker subscribes the notifier to every ticket lifecycle
// event. Delivery failures are logged and reported back to the publisher.
func StartNotificationWorker(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger) {
	if dispatcher == nil || notifier == nil {
		return
	}
	for _, eventType := range lifecycleEvents {
		dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			if err := notifier.Notify(ctx, event); err != nil {
				logger.Warn("notification failed",
					zap.String("event_type", string(event.Type)),
					zap.Int64("ticket_id", event.TicketID),
					zap.Error(err))
				return err
			}
			return nil
		})
	}
	logger.Debug("notification worker subscribed", zap.Int("events", len(lifecycleEvents)))
}
