package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// ErrVersionConflict reports that a ticket row changed between read and
// write. Callers re-fetch and re-decide; the update is never half-applied.
var ErrVersionConflict = errors.New("ticket version conflict")

// TicketFilter captures search parameters.
type TicketFilter struct {
	ReporterID   *string
	DepartmentID *string
	CategoryID   *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByTicketNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListUnsettled(ctx context.Context) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, reporter_user_id, category_id, department_id, assignee_staff_id,
               title, description, location, status, priority,
               sla_response_due, sla_resolution_due, first_response_at, resolved_at, closed_at,
               version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	// created_at is written explicitly rather than left to the column
	// default, so the row's creation instant is the exact anchor the SLA
	// due times were computed from.
	const query = `
        INSERT INTO tickets (ticket_number, reporter_user_id, category_id, department_id, assignee_staff_id,
                             title, description, location, status, priority,
                             sla_response_due, sla_resolution_due, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
        RETURNING id, version`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.ReporterID,
		ticket.CategoryID,
		ticket.DepartmentID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Location,
		ticket.Status,
		ticket.Priority,
		ticket.SlaResponseDue,
		ticket.SlaResolutionDue,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.Version)
}

// Update writes mutable fields with an optimistic version check. On success
// the ticket's version is advanced in place.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assignee_staff_id=$1, status=$2, priority=$3,
            first_response_at=$4, resolved_at=$5, closed_at=$6,
            version=version+1, updated_at=NOW()
        WHERE id=$7 AND version=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.AssigneeID,
		ticket.Status,
		ticket.Priority,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByTicketNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_number=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_user_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_staff_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListUnsettled returns every ticket not yet resolved or closed, for triage
// aggregates and the breach monitor.
func (r *ticketRepository) ListUnsettled(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status NOT IN ($1,$2) ORDER BY created_at ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.TicketNumber,
		&t.ReporterID,
		&t.CategoryID,
		&t.DepartmentID,
		&t.AssigneeID,
		&t.Title,
		&t.Description,
		&t.Location,
		&t.Status,
		&t.Priority,
		&t.SlaResponseDue,
		&t.SlaResolutionDue,
		&t.FirstResponseAt,
		&t.ResolvedAt,
		&t.ClosedAt,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
