package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusClaimed TicketStatus = "CLAIMED"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// ParseTicketStatus decodes a stored or submitted status. Legacy empty values
// are Open.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(TicketStatusOpen):
		return TicketStatusOpen, nil
	case string(TicketStatusClaimed):
		return TicketStatusClaimed, nil
	case string(TicketStatusClosed):
		return TicketStatusClosed, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// DecodeStatus normalizes a nullable stored status; NULL is Open.
func DecodeStatus(raw *string) (TicketStatus, error) {
	if raw == nil {
		return TicketStatusOpen, nil
	}
	return ParseTicketStatus(*raw)
}

// Label is the human form used in messages.
func (s TicketStatus) Label() string {
	switch s {
	case TicketStatusClaimed:
		return "Claimed"
	case TicketStatusClosed:
		return "Closed"
	default:
		return "Open"
	}
}

// IsPending reports whether the ticket still needs a tutor's attention.
func (s TicketStatus) IsPending() bool {
	return s == TicketStatusOpen || s == TicketStatusClaimed || s == ""
}

var allowedTransitions = map[TicketStatus]TicketStatus{
	TicketStatusOpen:    TicketStatusClaimed,
	TicketStatusClaimed: TicketStatusClosed,
	TicketStatusClosed:  TicketStatusClaimed,
}

// CanTransition reports whether current -> next is a legal lifecycle step.
func CanTransition(current, next TicketStatus) bool {
	if current == "" {
		current = TicketStatusOpen
	}
	return allowedTransitions[current] == next
}

// Ticket is a single student help request tied to a course section.
type Ticket struct {
	ID            int64
	StudentEmail  string
	StudentFirst  string
	StudentLast   string
	SectionID     int64
	Assignment    string
	Question      string
	ProblemTypeID int64
	Status        TicketStatus
	ClaimedBy     *string
	TimeCreated   time.Time
	UpdatedAt     time.Time
}

// StudentName returns "First Last".
func (t *Ticket) StudentName() string {
	return strings.TrimSpace(t.StudentFirst + " " + t.StudentLast)
}
