package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/config"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/events"
	"github.com/spec-kit/tutoring-portal/internal/service"
)

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) Purge() int {
	p.calls.Add(1)
	return 1
}

func TestSessionSweeperRejectsBadSpec(t *testing.T) {
	if _, err := StartSessionSweeper("every now and then", &countingPurger{}, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestSessionSweeperRuns(t *testing.T) {
	purger := &countingPurger{}
	scheduler, err := StartSessionSweeper("@every 1s", purger, zap.NewNop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer scheduler.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for purger.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

type recordingNotifier struct {
	seen []events.EventType
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, event events.Event) error {
	n.seen = append(n.seen, event.Type)
	return n.err
}

func TestNotificationWorkerSubscribes(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	notifier := &recordingNotifier{}
	StartNotificationWorker(dispatcher, notifier, zap.NewNop())

	for _, eventType := range []events.EventType{events.EventTicketOpened, events.EventTicketStatusChanged} {
		if err := dispatcher.Publish(context.Background(), events.Event{Type: eventType, TicketID: 1}); err != nil {
			t.Fatalf("%s: %v", eventType, err)
		}
	}
	if len(notifier.seen) != 2 {
		t.Fatalf("notified %v", notifier.seen)
	}
	StartNotificationWorker(nil, notifier, zap.NewNop())
}

func TestNotificationWorkerReportsFailures(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	StartNotificationWorker(dispatcher, &recordingNotifier{err: errors.New("webhook down")}, zap.NewNop())

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketOpened, TicketID: 1}); err == nil {
		t.Fatal("expected the delivery failure to reach the publisher")
	}
}

func TestNotificationServiceWithoutWebhook(t *testing.T) {
	notifier := service.NewNotificationService(zap.NewNop(), config.NotificationConfig{})
	event := events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: 7,
		Actor:    "tutor@unomaha.edu",
		Payload:  events.TicketStatusChangedPayload{OldStatus: domain.TicketStatusOpen, NewStatus: domain.TicketStatusClaimed},
	}
	if err := notifier.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify without webhook: %v", err)
	}
}
