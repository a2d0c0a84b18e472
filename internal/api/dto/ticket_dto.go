package dto

import (
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string                `json:"category_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Location    string                `json:"location"`
	Priority    domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketResponse is the full ticket representation, including SLA breach
// flags evaluated at response time.
type TicketResponse struct {
	ID                      string                `json:"id"`
	TicketNumber            string                `json:"ticket_number"`
	ReporterID              string                `json:"reporter_id"`
	CategoryID              string                `json:"category_id"`
	DepartmentID            string                `json:"department_id"`
	AssigneeID              *string               `json:"assignee_id"`
	Title                   string                `json:"title"`
	Description             string                `json:"description"`
	Location                string                `json:"location"`
	Status                  domain.TicketStatus   `json:"status"`
	Priority                domain.TicketPriority `json:"priority"`
	SlaResponseDue          time.Time             `json:"sla_response_due"`
	SlaResolutionDue        time.Time             `json:"sla_resolution_due"`
	FirstResponseAt         *time.Time            `json:"first_response_at"`
	ResolvedAt              *time.Time            `json:"resolved_at"`
	ClosedAt                *time.Time            `json:"closed_at"`
	IsSlaResponseBreached   bool                  `json:"is_sla_response_breached"`
	IsSlaResolutionBreached bool                  `json:"is_sla_resolution_breached"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

// NewTicketResponse maps a service view to the wire shape.
func NewTicketResponse(v *service.TicketView) TicketResponse {
	return TicketResponse{
		ID:                      v.ID,
		TicketNumber:            v.TicketNumber,
		ReporterID:              v.ReporterID,
		CategoryID:              v.CategoryID,
		DepartmentID:            v.DepartmentID,
		AssigneeID:              v.AssigneeID,
		Title:                   v.Title,
		Description:             v.Description,
		Location:                v.Location,
		Status:                  v.Status,
		Priority:                v.Priority,
		SlaResponseDue:          v.SlaResponseDue,
		SlaResolutionDue:        v.SlaResolutionDue,
		FirstResponseAt:         v.FirstResponseAt,
		ResolvedAt:              v.ResolvedAt,
		ClosedAt:                v.ClosedAt,
		IsSlaResponseBreached:   v.IsSlaResponseBreached,
		IsSlaResolutionBreached: v.IsSlaResolutionBreached,
		CreatedAt:               v.CreatedAt,
		UpdatedAt:               v.UpdatedAt,
	}
}

// NewTicketResponses maps a slice of views.
func NewTicketResponses(views []service.TicketView) []TicketResponse {
	out := make([]TicketResponse, 0, len(views))
	for i := range views {
		out = append(out, NewTicketResponse(&views[i]))
	}
	return out
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangedByType domain.ActorType        `json:"changed_by_type"`
	ChangedByID   *string                 `json:"changed_by_id"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	OldValue      map[string]any          `json:"old_value"`
	NewValue      map[string]any          `json:"new_value"`
	CreatedAt     time.Time               `json:"created_at"`
}

// NewTicketHistoryResponses maps history entries.
func NewTicketHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketHistoryResponse{
			ID:            e.ID,
			ChangedByType: e.ChangedByType,
			ChangedByID:   e.ChangedByID,
			ChangeType:    e.ChangeType,
			OldValue:      e.OldValue,
			NewValue:      e.NewValue,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
