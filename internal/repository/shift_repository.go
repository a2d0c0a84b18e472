package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// ShiftRepository handles persistence for shift schedule rows.
type ShiftRepository interface {
	ListByStaffDay(ctx context.Context, staffID string, day time.Time) ([]domain.Shift, error)
	ListByStaffIDsDay(ctx context.Context, staffIDs []string, day time.Time) (map[string][]domain.Shift, error)
	// ReplaceDay atomically swaps all of a staff member's rows for one day
	// with the given set. This is the only mutation path, so the
	// Leave-XOR-working invariant can never be broken by interleaved
	// partial writes.
	ReplaceDay(ctx context.Context, staffID string, day time.Time, shifts []domain.Shift) error
}

type shiftRepository struct {
	pool *pgxpool.Pool
}

// NewShiftRepository instantiates the repository.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{pool: pool}
}

const shiftColumns = `id, staff_id, department_id, shift_date, start_minute, end_minute, status, note, created_at, updated_at`

func (r *shiftRepository) ListByStaffDay(ctx context.Context, staffID string, day time.Time) ([]domain.Shift, error) {
	const query = `
        SELECT ` + shiftColumns + `
        FROM shifts WHERE staff_id=$1 AND shift_date=$2
        ORDER BY start_minute ASC`
	rows, err := r.pool.Query(ctx, query, staffID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

func (r *shiftRepository) ListByStaffIDsDay(ctx context.Context, staffIDs []string, day time.Time) (map[string][]domain.Shift, error) {
	result := make(map[string][]domain.Shift, len(staffIDs))
	if len(staffIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT ` + shiftColumns + `
        FROM shifts WHERE staff_id = ANY($1) AND shift_date=$2
        ORDER BY start_minute ASC`
	rows, err := r.pool.Query(ctx, query, staffIDs, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shifts, err := scanShifts(rows)
	if err != nil {
		return nil, err
	}
	for _, shift := range shifts {
		result[shift.StaffID] = append(result[shift.StaffID], shift)
	}
	return result, nil
}

func (r *shiftRepository) ReplaceDay(ctx context.Context, staffID string, day time.Time, shifts []domain.Shift) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM shifts WHERE staff_id=$1 AND shift_date=$2`, staffID, day); err != nil {
		return err
	}
	const insert = `
        INSERT INTO shifts (staff_id, department_id, shift_date, start_minute, end_minute, status, note)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	for _, shift := range shifts {
		if _, err := tx.Exec(ctx, insert,
			staffID,
			shift.DepartmentID,
			day,
			shift.StartMinute,
			shift.EndMinute,
			shift.Status,
			shift.Note,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanShifts(rows pgx.Rows) ([]domain.Shift, error) {
	var result []domain.Shift
	for rows.Next() {
		var shift domain.Shift
		if err := rows.Scan(
			&shift.ID,
			&shift.StaffID,
			&shift.DepartmentID,
			&shift.Date,
			&shift.StartMinute,
			&shift.EndMinute,
			&shift.Status,
			&shift.Note,
			&shift.CreatedAt,
			&shift.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, shift)
	}
	return result, rows.Err()
}
