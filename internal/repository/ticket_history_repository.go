package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// TicketHistoryRepository is the append-only audit trail behind every
// ticket: status moves, reassignments, and SLA alarms land here. Entries
// are never updated or deleted.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type auditTrailRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository returns a Postgres-backed audit trail.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &auditTrailRepository{pool: pool}
}

func (r *auditTrailRepository) Create(ctx context.Context, entry *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by_type, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.ChangedByType,
		entry.ChangedByID,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListByTicket returns a ticket's trail oldest first, so a reader sees the
// lifecycle in the order it happened.
func (r *auditTrailRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var entry domain.TicketHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ChangedByType,
			&entry.ChangedByID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
