package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
)

type ticketRepo struct {
	store *Store
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sections[ticket.SectionID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := s.problems[ticket.ProblemTypeID]; !ok {
		return repository.ErrReferenced
	}
	if ticket.ClaimedBy != nil {
		if _, ok := s.tutors[*ticket.ClaimedBy]; !ok {
			return repository.ErrReferenced
		}
	}
	ticket.ID = s.next("tickets")
	if ticket.TimeCreated.IsZero() {
		ticket.TimeCreated = s.now()
	}
	ticket.UpdatedAt = s.now()
	s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket = cloneTicket(ticket)
	return &ticket, nil
}

func (r *ticketRepo) Transition(_ context.Context, tr repository.Transition) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[tr.TicketID]
	if !ok {
		return nil, repository.ErrStaleTransition
	}
	current := ticket.Status
	if current == "" {
		current = domain.TicketStatusOpen
	}
	if current != tr.From {
		return nil, repository.ErrStaleTransition
	}
	if tr.ExpectedClaimant != nil && (ticket.ClaimedBy == nil || *ticket.ClaimedBy != *tr.ExpectedClaimant) {
		return nil, repository.ErrStaleTransition
	}
	if tr.Claimant != nil {
		if _, ok := s.tutors[*tr.Claimant]; !ok {
			return nil, repository.ErrReferenced
		}
		ticket.ClaimedBy = cloneString(tr.Claimant)
	}
	ticket.Status = tr.To
	ticket.UpdatedAt = s.now()
	s.tickets[ticket.ID] = ticket

	out := cloneTicket(ticket)
	return &out, nil
}

func (r *ticketRepo) ListQueue(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	return r.filter(func(t domain.Ticket) bool {
		return t.Status.IsPending() || t.TimeCreated.After(now)
	}), nil
}

func (r *ticketRepo) ListByStatus(_ context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	wanted := make(map[domain.TicketStatus]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}
	return r.filter(func(t domain.Ticket) bool {
		status := t.Status
		if status == "" {
			status = domain.TicketStatusOpen
		}
		return wanted[status]
	}), nil
}

func (r *ticketRepo) filter(keep func(domain.Ticket) bool) []domain.Ticket {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if keep(ticket) {
			result = append(result, cloneTicket(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TimeCreated.Equal(result[j].TimeCreated) {
			return result[i].TimeCreated.Before(result[j].TimeCreated)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *ticketRepo) CountPendingBySection(_ context.Context, sectionIDs []int64) (map[int64]int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		wanted[id] = true
	}
	result := make(map[int64]int, len(sectionIDs))
	for _, ticket := range s.tickets {
		if wanted[ticket.SectionID] && ticket.Status.IsPending() {
			result[ticket.SectionID]++
		}
	}
	return result, nil
}

type historyRepo struct {
	store *Store
}

func (r *historyRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[entry.TicketID]; !ok {
		return repository.ErrReferenced
	}
	if entry.ChangedBy != nil {
		if _, ok := s.tutors[*entry.ChangedBy]; !ok {
			return repository.ErrReferenced
		}
	}
	entry.ID = s.next("ticket_history")
	entry.CreatedAt = s.now()
	stored := *entry
	stored.ChangedBy = cloneString(entry.ChangedBy)
	if entry.OldStatus != nil {
		old := *entry.OldStatus
		stored.OldStatus = &old
	}
	s.history = append(s.history, stored)
	return nil
}

func (r *historyRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.TicketHistory
	for _, entry := range s.history {
		if entry.TicketID == ticketID {
			entry.ChangedBy = cloneString(entry.ChangedBy)
			result = append(result, entry)
		}
	}
	return result, nil
}
