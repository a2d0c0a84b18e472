package dto

import (
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// CreateCategoryRequest payload for the category registry.
type CreateCategoryRequest struct {
	Name               string                `json:"name"`
	Code               string                `json:"code"`
	DepartmentID       string                `json:"department_id"`
	SlaResponseHours   int                   `json:"sla_response_hours"`
	SlaResolutionHours int                   `json:"sla_resolution_hours"`
	DefaultPriority    domain.TicketPriority `json:"default_priority"`
}

// UpdateCategoryRequest payload. Nil fields are left unchanged.
type UpdateCategoryRequest struct {
	Name               *string                `json:"name"`
	SlaResponseHours   *int                   `json:"sla_response_hours"`
	SlaResolutionHours *int                   `json:"sla_resolution_hours"`
	DefaultPriority    *domain.TicketPriority `json:"default_priority"`
	IsActive           *bool                  `json:"is_active"`
}

// CategoryResponse describes one registry entry.
type CategoryResponse struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	Code               string                `json:"code"`
	DepartmentID       string                `json:"department_id"`
	SlaResponseHours   int                   `json:"sla_response_hours"`
	SlaResolutionHours int                   `json:"sla_resolution_hours"`
	DefaultPriority    domain.TicketPriority `json:"default_priority"`
	IsActive           bool                  `json:"is_active"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// NewCategoryResponse maps the domain model.
func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:                 c.ID,
		Name:               c.Name,
		Code:               c.Code,
		DepartmentID:       c.DepartmentID,
		SlaResponseHours:   c.SlaResponseHours,
		SlaResolutionHours: c.SlaResolutionHours,
		DefaultPriority:    c.DefaultPriority,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
