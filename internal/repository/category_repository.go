package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// CategoryRepository handles persistence for the category registry.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByCode(ctx context.Context, code string) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `id, name, code, department_id, sla_response_hours, sla_resolution_hours,
               default_priority, is_active, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, code, department_id, sla_response_hours, sla_resolution_hours, default_priority, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.Name,
		category.Code,
		category.DepartmentID,
		category.SlaResponseHours,
		category.SlaResolutionHours,
		category.DefaultPriority,
		category.IsActive,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories
        SET name=$1, code=$2, department_id=$3, sla_response_hours=$4, sla_resolution_hours=$5,
            default_priority=$6, is_active=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		category.Name,
		category.Code,
		category.DepartmentID,
		category.SlaResponseHours,
		category.SlaResolutionHours,
		category.DefaultPriority,
		category.IsActive,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id)
}

func (r *categoryRepository) GetByCode(ctx context.Context, code string) (*domain.Category, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM categories WHERE code=$1`, code)
}

func (r *categoryRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&category.ID,
		&category.Name,
		&category.Code,
		&category.DepartmentID,
		&category.SlaResponseHours,
		&category.SlaResolutionHours,
		&category.DefaultPriority,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Code,
			&category.DepartmentID,
			&category.SlaResponseHours,
			&category.SlaResolutionHours,
			&category.DefaultPriority,
			&category.IsActive,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
