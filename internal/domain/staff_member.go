package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleTechnician StaffRole = "TECHNICIAN"
	StaffRoleSupervisor StaffRole = "SUPERVISOR"
	StaffRoleAdmin      StaffRole = "ADMIN"
)

// CanBeAssigned reports whether the role may hold ticket assignments.
func (r StaffRole) CanBeAssigned() bool {
	return r == StaffRoleTechnician || r == StaffRoleSupervisor
}

// StaffMember models a facilities operator or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
