package domain

import "time"

// Category is the registry entry that drives SLA deadlines and routing for
// tickets filed under it. SLA hours are whole hours from ticket creation.
type Category struct {
	ID                 string
	Name               string
	Code               string
	DepartmentID       string
	SlaResponseHours   int
	SlaResolutionHours int
	DefaultPriority    TicketPriority
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
