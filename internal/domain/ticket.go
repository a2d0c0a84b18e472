package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
// The lifecycle is strictly ordered: OPEN -> IN_PROGRESS -> RESOLVED -> CLOSED.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}

// IsSettled reports whether the ticket has been resolved or closed.
func (s TicketStatus) IsSettled() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for facilities requests.
//
// SlaResponseDue and SlaResolutionDue are stamped once at creation from the
// category's SLA hours and never change afterwards, even if the category is
// later edited. FirstResponseAt, ResolvedAt and ClosedAt are set once by
// lifecycle transitions and never cleared. Version guards concurrent
// transitions on the same ticket.
type Ticket struct {
	ID               string
	TicketNumber     string
	ReporterID       string
	CategoryID       string
	DepartmentID     string
	AssigneeID       *string
	Title            string
	Description      string
	Location         string
	Status           TicketStatus
	Priority         TicketPriority
	SlaResponseDue   time.Time
	SlaResolutionDue time.Time
	FirstResponseAt  *time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SettledAt returns the instant the ticket stopped being an open item,
// preferring ResolvedAt over ClosedAt. Nil while the ticket is still open.
func (t *Ticket) SettledAt() *time.Time {
	if t.ResolvedAt != nil {
		return t.ResolvedAt
	}
	return t.ClosedAt
}
