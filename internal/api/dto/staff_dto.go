package dto

import (
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateStaffRequest payload for admin staff provisioning.
type CreateStaffRequest struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Password     string           `json:"password"`
	Role         domain.StaffRole `json:"role"`
	DepartmentID *string          `json:"department_id"`
}

// UpdateStaffRequest payload for admin staff edits.
type UpdateStaffRequest struct {
	Name         *string           `json:"name"`
	Role         *domain.StaffRole `json:"role"`
	DepartmentID *string           `json:"department_id"`
	Active       *bool             `json:"active"`
}

// StaffResponse describes a staff member.
type StaffResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Role         domain.StaffRole `json:"role"`
	DepartmentID *string          `json:"department_id"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewStaffResponse maps the domain model.
func NewStaffResponse(s *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		Role:         s.Role,
		DepartmentID: s.DepartmentID,
		Active:       s.Active,
		CreatedAt:    s.CreatedAt,
	}
}
