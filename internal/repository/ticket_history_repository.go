package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tutoring-portal/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by, old_status, new_status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	var oldStatus *string
	if history.OldStatus != nil {
		s := string(*history.OldStatus)
		oldStatus = &s
	}
	return r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.ChangedBy,
		oldStatus,
		string(history.NewStatus),
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, changed_by, old_status, new_status, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		var oldStatus *string
		var newStatus string
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ChangedBy,
			&oldStatus,
			&newStatus,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		if oldStatus != nil {
			decoded, err := domain.ParseTicketStatus(*oldStatus)
			if err != nil {
				return nil, err
			}
			history.OldStatus = &decoded
		}
		decoded, err := domain.ParseTicketStatus(newStatus)
		if err != nil {
			return nil, err
		}
		history.NewStatus = decoded
		result = append(result, history)
	}
	return result, rows.Err()
}
