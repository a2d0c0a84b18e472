package dto

import "github.com/spec-kit/facilities-helpdesk/internal/domain"

// DepartmentRequest payload for create/update.
type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// DepartmentResponse describes a facilities unit.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// NewDepartmentResponse maps the domain model.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
	}
}
