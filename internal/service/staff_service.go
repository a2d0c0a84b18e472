package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facilities-helpdesk/internal/auth"
	"github.com/spec-kit/facilities-helpdesk/internal/config"
	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/repository"
	"github.com/spec-kit/facilities-helpdesk/internal/sla"
	apperrors "github.com/spec-kit/facilities-helpdesk/pkg/util"
)

// StaffService manages departments, the category registry and staff accounts.
type StaffService struct {
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	staff       repository.StaffRepository
	bcryptCost  int
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role         *domain.StaffRole
	DepartmentID *string
	Active       *bool
	Limit        int
	Offset       int
}

// OrgDependencies encapsulates repositories required for org management.
type OrgDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	CategoryRepo   repository.CategoryRepository
	StaffRepo      repository.StaffRepository
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps OrgDependencies) *StaffService {
	return &StaffService{
		departments: deps.DepartmentRepo,
		categories:  deps.CategoryRepo,
		staff:       deps.StaffRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.StaffMember) error {
	if actor == nil || actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateDepartment creates a new department.
func (s *StaffService) CreateDepartment(ctx context.Context, actor *domain.StaffMember, name, description string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept := &domain.Department{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns active departments.
func (s *StaffService) ListDepartments(ctx context.Context, actor *domain.StaffMember) ([]domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.departments.ListActive(ctx)
}

// UpdateDepartment modifies department metadata.
func (s *StaffService) UpdateDepartment(ctx context.Context, actor *domain.StaffMember, dept *domain.Department) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// GetDepartmentByID fetches a department.
func (s *StaffService) GetDepartmentByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// CategoryInput describes registry entry fields under admin control.
type CategoryInput struct {
	Name               string
	Code               string
	DepartmentID       string
	SlaResponseHours   int
	SlaResolutionHours int
	DefaultPriority    domain.TicketPriority
}

// CreateCategory registers a new ticket category. SLA hours are validated
// here so no ticket can ever be filed under a category with negative hours.
func (s *StaffService) CreateCategory(ctx context.Context, actor *domain.StaffMember, input CategoryInput) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.SlaResponseHours < 0 || input.SlaResolutionHours < 0 {
		return nil, apperrors.MapError(sla.ErrInvalidSLAConfig)
	}
	if !domain.ValidPriority(input.DefaultPriority) {
		return nil, apperrors.NewValidationError("unknown default priority", map[string]any{"priority": input.DefaultPriority})
	}
	if _, err := s.departments.GetByID(ctx, input.DepartmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if existing, err := s.categories.GetByCode(ctx, input.Code); err == nil && existing != nil {
		return nil, apperrors.NewConflict("category code already exists", map[string]any{"code": input.Code})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	category := &domain.Category{
		Name:               strings.TrimSpace(input.Name),
		Code:               strings.TrimSpace(input.Code),
		DepartmentID:       input.DepartmentID,
		SlaResponseHours:   input.SlaResponseHours,
		SlaResolutionHours: input.SlaResolutionHours,
		DefaultPriority:    input.DefaultPriority,
		IsActive:           true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// CategoryUpdate carries optional edits; nil fields are left unchanged.
// Edits never touch deadlines already stamped on existing tickets.
type CategoryUpdate struct {
	Name               *string
	SlaResponseHours   *int
	SlaResolutionHours *int
	DefaultPriority    *domain.TicketPriority
	IsActive           *bool
}

// UpdateCategory applies an admin edit to a registry entry.
func (s *StaffService) UpdateCategory(ctx context.Context, actor *domain.StaffMember, id string, update CategoryUpdate) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if update.Name != nil {
		category.Name = strings.TrimSpace(*update.Name)
	}
	if update.SlaResponseHours != nil {
		category.SlaResponseHours = *update.SlaResponseHours
	}
	if update.SlaResolutionHours != nil {
		category.SlaResolutionHours = *update.SlaResolutionHours
	}
	if category.SlaResponseHours < 0 || category.SlaResolutionHours < 0 {
		return nil, apperrors.MapError(sla.ErrInvalidSLAConfig)
	}
	if update.DefaultPriority != nil {
		if !domain.ValidPriority(*update.DefaultPriority) {
			return nil, apperrors.NewValidationError("unknown default priority", map[string]any{"priority": *update.DefaultPriority})
		}
		category.DefaultPriority = *update.DefaultPriority
	}
	if update.IsActive != nil {
		category.IsActive = *update.IsActive
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns registry entries, optionally only active ones.
func (s *StaffService) ListCategories(ctx context.Context, actor *domain.StaffMember, activeOnly bool) ([]domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.categories.List(ctx, activeOnly)
}

// GetCategoryByID fetches a registry entry.
func (s *StaffService) GetCategoryByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// CreateStaffMember adds a new staff account.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, name, email, password string, role domain.StaffRole, departmentID *string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if departmentID != nil && *departmentID != "" {
		dept, err := s.departments.GetByID(ctx, *departmentID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !dept.IsActive {
			return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": *departmentID})
		}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: departmentID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists staff with filters.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.StaffFilter{
		Role:         filters.Role,
		DepartmentID: filters.DepartmentID,
		Active:       filters.Active,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}
	return s.staff.List(ctx, repoFilter)
}

// GetStaffMemberByID fetches staff.
func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// StaffUpdate carries optional staff edits; nil fields are left unchanged.
type StaffUpdate struct {
	Name         *string
	Role         *domain.StaffRole
	DepartmentID *string
	Active       *bool
}

// UpdateStaffMember updates staff details.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID string, update StaffUpdate) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if update.Name != nil {
		staff.Name = *update.Name
	}
	if update.Role != nil {
		staff.Role = *update.Role
	}
	if update.DepartmentID != nil {
		if *update.DepartmentID == "" {
			staff.DepartmentID = nil
		} else {
			dept, err := s.departments.GetByID(ctx, *update.DepartmentID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			if !dept.IsActive {
				return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": *update.DepartmentID})
			}
			staff.DepartmentID = update.DepartmentID
		}
	}
	if update.Active != nil {
		staff.Active = *update.Active
	}
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}
