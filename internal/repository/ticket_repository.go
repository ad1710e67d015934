package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tutoring-portal/internal/domain"
)

// Transition describes a compare-and-swap on a ticket's status.
type Transition struct {
	TicketID int64
	From     domain.TicketStatus
	To       domain.TicketStatus
	// ExpectedClaimant, when set, must equal the stored claimant.
	ExpectedClaimant *string
	// Claimant, when set, replaces the stored claimant.
	Claimant *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Transition(ctx context.Context, tr Transition) (*domain.Ticket, error)
	ListQueue(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	ListByStatus(ctx context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error)
	CountPendingBySection(ctx context.Context, sectionIDs []int64) (map[int64]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, student_email, student_fname, student_lname, section_id, assignment, question,
               problem_type_id, status, claimed_by, time_created, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (student_email, student_fname, student_lname, section_id, assignment, question,
                             problem_type_id, status, time_created)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.StudentEmail,
		ticket.StudentFirst,
		ticket.StudentLast,
		ticket.SectionID,
		ticket.Assignment,
		ticket.Question,
		ticket.ProblemTypeID,
		string(ticket.Status),
		ticket.TimeCreated,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
	return mapWriteError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

// Transition applies the status change only if the stored status (NULL read
// as OPEN) still equals tr.From, so concurrent claims resolve to one winner.
func (r *ticketRepository) Transition(ctx context.Context, tr Transition) (*domain.Ticket, error) {
	query := `
        UPDATE tickets
        SET status=$2, claimed_by=COALESCE($3::text, claimed_by), updated_at=NOW()
        WHERE id=$1
          AND COALESCE(status, 'OPEN')=$4
          AND ($5::text IS NULL OR claimed_by=$5::text)
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		tr.TicketID,
		string(tr.To),
		tr.Claimant,
		string(tr.From),
		tr.ExpectedClaimant,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStaleTransition
	}
	return ticket, mapWriteError(err)
}

func (r *ticketRepository) ListQueue(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
             FROM tickets
             WHERE time_created > $1 OR status IS NULL OR status IN ('OPEN','CLAIMED')
             ORDER BY time_created ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByStatus(ctx context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	values := make([]string, 0, len(statuses))
	includeNull := false
	for _, status := range statuses {
		values = append(values, string(status))
		if status == domain.TicketStatusOpen {
			includeNull = true
		}
	}
	query := `SELECT ` + ticketColumns + `
             FROM tickets
             WHERE status = ANY($1::text[]) OR ($2::boolean AND status IS NULL)
             ORDER BY time_created ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, values, includeNull)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountPendingBySection(ctx context.Context, sectionIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int, len(sectionIDs))
	if len(sectionIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT section_id, COUNT(*)
        FROM tickets
        WHERE section_id = ANY($1) AND (status IS NULL OR status IN ('OPEN','CLAIMED'))
        GROUP BY section_id`
	rows, err := r.pool.Query(ctx, query, sectionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sectionID int64
		var count int
		if err := rows.Scan(&sectionID, &count); err != nil {
			return nil, err
		}
		result[sectionID] = count
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var status *string
	if err := row.Scan(
		&ticket.ID,
		&ticket.StudentEmail,
		&ticket.StudentFirst,
		&ticket.StudentLast,
		&ticket.SectionID,
		&ticket.Assignment,
		&ticket.Question,
		&ticket.ProblemTypeID,
		&status,
		&ticket.ClaimedBy,
		&ticket.TimeCreated,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	decoded, err := domain.DecodeStatus(status)
	if err != nil {
		return nil, err
	}
	ticket.Status = decoded
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
