package domain

import "time"

// TicketHistory is an immutable audit trail entry for a status change.
type TicketHistory struct {
	ID        int64
	TicketID  int64
	ChangedBy *string
	OldStatus *TicketStatus
	NewStatus TicketStatus
	CreatedAt time.Time
}
