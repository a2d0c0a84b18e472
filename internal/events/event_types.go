package events

import (
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventSlaBreached         EventType = "sla_breached"
	EventShiftDayChanged     EventType = "shift_day_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	CategoryID   string                `json:"category_id"`
	DepartmentID string                `json:"department_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Location     string                `json:"location"`
	Title        string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeStaffID *string `json:"assignee_staff_id,omitempty"`
	DepartmentID    string  `json:"department_id"`
}

// SlaBreachedPayload identifies which deadline was missed.
type SlaBreachedPayload struct {
	Kind          string    `json:"kind"` // "response" or "resolution"
	DueAt         time.Time `json:"due_at"`
	DetectedAt    time.Time `json:"detected_at"`
	TicketNumber  string    `json:"ticket_number"`
	AssigneeStaff *string   `json:"assignee_staff_id,omitempty"`
}

// ShiftDayChangedPayload describes a schedule mutation.
type ShiftDayChangedPayload struct {
	StaffID  string    `json:"staff_id"`
	Day      time.Time `json:"day"`
	RowCount int       `json:"row_count"`
	OnLeave  bool      `json:"on_leave"`
}
