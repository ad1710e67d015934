package events

import (
	"time"

	"github.com/spec-kit/tutoring-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened        EventType = "ticket_opened"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Event represents a lifecycle event emitted by the ticket service. Actor is
// empty for anonymous student submissions.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	SectionID     int64  `json:"section_id"`
	ProblemTypeID int64  `json:"problem_type_id"`
	Assignment    string `json:"assignment"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ClaimedBy *string             `json:"claimed_by,omitempty"`
}
