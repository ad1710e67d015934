package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/events"
	"github.com/spec-kit/tutoring-portal/internal/observability"
	"github.com/spec-kit/tutoring-portal/internal/repository"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	catalog    repository.CatalogRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	CatalogRepo repository.CatalogRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       func() time.Time
}

// TicketCreateInput describes a student's submission. Text fields are stored
// verbatim.
type TicketCreateInput struct {
	StudentEmail  string
	StudentFirst  string
	StudentLast   string
	SectionID     int64
	ProblemTypeID int64
	Assignment    string
	Question      string
}

// Queue is the tutor view of tickets, split by status.
type Queue struct {
	Open    []domain.Ticket
	Claimed []domain.Ticket
	Closed  []domain.Ticket
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		catalog:    deps.CatalogRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		validate:   validator.New(),
		now:        clock,
	}
}

// Create opens a ticket. Anyone may call it.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	section, err := s.catalog.GetSection(ctx, input.SectionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown section", map[string]any{"section_id": input.SectionID})
		}
		return nil, err
	}
	semester, err := s.catalog.GetSemester(ctx, section.SemesterID)
	if err != nil {
		return nil, err
	}
	if !semester.ActiveOn(now) {
		return nil, apperrors.NewValidationError("section is not offered this semester", map[string]any{"section_id": input.SectionID})
	}
	if _, err := s.catalog.GetProblemType(ctx, input.ProblemTypeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown problem type", map[string]any{"problem_type_id": input.ProblemTypeID})
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		StudentEmail:  strings.TrimSpace(input.StudentEmail),
		StudentFirst:  input.StudentFirst,
		StudentLast:   input.StudentLast,
		SectionID:     input.SectionID,
		Assignment:    input.Assignment,
		Question:      input.Question,
		ProblemTypeID: input.ProblemTypeID,
		Status:        domain.TicketStatusOpen,
		TimeCreated:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, apperrors.NewValidationError("unknown section or problem type", nil)
		}
		return nil, err
	}

	s.recordStatusChange(ctx, nil, ticket.ID, nil, domain.TicketStatusOpen)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketOpened,
		TicketID: ticket.ID,
		Payload: events.TicketOpenedPayload{
			SectionID:     ticket.SectionID,
			ProblemTypeID: ticket.ProblemTypeID,
			Assignment:    ticket.Assignment,
		},
	})
	return ticket, nil
}

func (s *TicketService) validateInput(input TicketCreateInput) error {
	details := map[string]any{}
	required := map[string]string{
		"student_fname": input.StudentFirst,
		"student_lname": input.StudentLast,
		"assignment":    input.Assignment,
		"question":      input.Question,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			details[field] = "required"
		}
	}
	if err := s.validate.Var(strings.TrimSpace(input.StudentEmail), "required,email"); err != nil {
		details["student_email"] = "must be a valid email"
	}
	if input.SectionID <= 0 {
		details["section_id"] = "required"
	}
	if input.ProblemTypeID <= 0 {
		details["problem_type_id"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

// Get returns one ticket to a tutor.
func (s *TicketService) Get(ctx context.Context, actor auth.Principal, id int64) (*domain.Ticket, error) {
	if !auth.IsAuthenticated(actor) {
		return nil, apperrors.NewForbidden()
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// Claim moves an Open ticket to Claimed with the actor as claimant.
func (s *TicketService) Claim(ctx context.Context, actor auth.Principal, id int64) (*domain.Ticket, error) {
	if !auth.IsAuthenticated(actor) {
		return nil, apperrors.NewForbidden()
	}
	email := actor.Email()
	return s.transition(ctx, actor, repository.Transition{
		TicketID: id,
		From:     domain.TicketStatusOpen,
		To:       domain.TicketStatusClaimed,
		Claimant: &email,
	})
}

// Close moves a Claimed ticket to Closed. Only the claimant or a superuser
// may close.
func (s *TicketService) Close(ctx context.Context, actor auth.Principal, id int64) (*domain.Ticket, error) {
	if !auth.IsAuthenticated(actor) {
		return nil, apperrors.NewForbidden()
	}
	tr := repository.Transition{
		TicketID: id,
		From:     domain.TicketStatusClaimed,
		To:       domain.TicketStatusClosed,
	}
	if !auth.IsSuperuser(actor) {
		email := actor.Email()
		tr.ExpectedClaimant = &email
	}
	return s.transition(ctx, actor, tr)
}

// Reopen moves a Closed ticket back to Claimed; the reopening tutor becomes
// the claimant.
func (s *TicketService) Reopen(ctx context.Context, actor auth.Principal, id int64) (*domain.Ticket, error) {
	if !auth.IsAuthenticated(actor) {
		return nil, apperrors.NewForbidden()
	}
	email := actor.Email()
	return s.transition(ctx, actor, repository.Transition{
		TicketID: id,
		From:     domain.TicketStatusClosed,
		To:       domain.TicketStatusClaimed,
		Claimant: &email,
	})
}

// Advance claims an Open ticket or closes a Claimed one.
func (s *TicketService) Advance(ctx context.Context, actor auth.Principal, id int64) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case domain.TicketStatusClaimed:
		return s.Close(ctx, actor, id)
	case domain.TicketStatusClosed:
		return nil, conflictFor(ticket, domain.TicketStatusClaimed)
	default:
		return s.Claim(ctx, actor, id)
	}
}

func (s *TicketService) transition(ctx context.Context, actor auth.Principal, tr repository.Transition) (*domain.Ticket, error) {
	if !domain.CanTransition(tr.From, tr.To) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{"from": tr.From, "to": tr.To})
	}

	ticket, err := s.tickets.Transition(ctx, tr)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleTransition):
			return nil, s.explainStale(ctx, tr)
		case errors.Is(err, repository.ErrReferenced):
			// The actor has no tutor row to record as claimant.
			return nil, apperrors.NewForbidden()
		}
		return nil, err
	}

	email := actor.Email()
	from := tr.From
	s.recordStatusChange(ctx, &email, ticket.ID, &from, tr.To)
	s.metrics.RecordTransition(string(tr.To))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    email,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: tr.From,
			NewStatus: tr.To,
			ClaimedBy: ticket.ClaimedBy,
		},
	})
	return ticket, nil
}

// explainStale re-reads a ticket whose conditional update matched nothing.
func (s *TicketService) explainStale(ctx context.Context, tr repository.Transition) error {
	current, err := s.tickets.GetByID(ctx, tr.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": tr.TicketID})
		}
		return err
	}
	// Still in the expected state, so only the claimant check failed.
	if current.Status == tr.From && tr.ExpectedClaimant != nil {
		return apperrors.NewForbidden()
	}
	return conflictFor(current, tr.To)
}

func conflictFor(current *domain.Ticket, wanted domain.TicketStatus) error {
	var message string
	switch {
	case current.Status == domain.TicketStatusClaimed && wanted == domain.TicketStatusClaimed:
		message = "ticket already claimed"
	case current.Status == domain.TicketStatusClosed && wanted == domain.TicketStatusClosed:
		message = "ticket already closed"
	case current.Status == domain.TicketStatusClosed:
		message = "ticket is closed"
	case wanted == domain.TicketStatusClosed:
		message = "ticket is not claimed"
	default:
		message = "ticket is not closed"
	}
	details := map[string]any{"status": current.Status}
	if current.ClaimedBy != nil {
		details["claimed_by"] = *current.ClaimedBy
	}
	return apperrors.NewConflict(message, details)
}

// Queue returns pending tickets plus any created after the current instant,
// oldest first and partitioned by status.
func (s *TicketService) Queue(ctx context.Context, actor auth.Principal) (Queue, error) {
	if !auth.IsAuthenticated(actor) {
		return Queue{}, apperrors.NewForbidden()
	}
	tickets, err := s.tickets.ListQueue(ctx, s.now())
	if err != nil {
		return Queue{}, err
	}
	return PartitionQueue(tickets), nil
}

// PartitionQueue splits tickets into disjoint status buckets, keeping order.
func PartitionQueue(tickets []domain.Ticket) Queue {
	q := Queue{
		Open:    []domain.Ticket{},
		Claimed: []domain.Ticket{},
		Closed:  []domain.Ticket{},
	}
	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.TicketStatusClaimed:
			q.Claimed = append(q.Claimed, ticket)
		case domain.TicketStatusClosed:
			q.Closed = append(q.Closed, ticket)
		default:
			q.Open = append(q.Open, ticket)
		}
	}
	return q
}

// Pending lists Open tickets, oldest first.
func (s *TicketService) Pending(ctx context.Context, actor auth.Principal) ([]domain.Ticket, error) {
	if !auth.IsAuthenticated(actor) {
		return nil, apperrors.NewForbidden()
	}
	tickets, err := s.tickets.ListByStatus(ctx, []domain.TicketStatus{domain.TicketStatusOpen})
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// History returns the audit trail of a ticket.
func (s *TicketService) History(ctx context.Context, actor auth.Principal, id int64) ([]domain.TicketHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}

func (s *TicketService) recordStatusChange(ctx context.Context, actor *string, ticketID int64, oldStatus *domain.TicketStatus, newStatus domain.TicketStatus) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:  ticketID,
		ChangedBy: actor,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("record ticket history", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
