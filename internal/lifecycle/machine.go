// Package lifecycle governs ticket status transitions and the timestamp
// side effects each transition carries.
//
// Transitions mutate the ticket in place only on success; a failed call
// leaves the ticket exactly as it was. Callers are responsible for applying
// the result under a per-ticket mutual-exclusion guarantee.
package lifecycle

import (
	"errors"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

var (
	// ErrInvalidTransition reports a status change that does not match an
	// allowed edge from the ticket's current state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTerminalState reports any mutation attempted on a closed ticket.
	ErrTerminalState = errors.New("ticket is closed")

	// ErrAlreadyClosed reports an assignment attempted on a closed ticket.
	ErrAlreadyClosed = errors.New("ticket already closed")
)

// Assign sets the assignee without changing status. Valid while the ticket
// is OPEN or IN_PROGRESS.
func Assign(ticket *domain.Ticket, assigneeID string) error {
	if ticket.Status.IsTerminal() {
		return ErrAlreadyClosed
	}
	if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusInProgress {
		return ErrInvalidTransition
	}
	ticket.AssigneeID = &assigneeID
	return nil
}

// Start moves OPEN -> IN_PROGRESS and records the first-response instant if
// one has not been recorded yet.
func Start(ticket *domain.Ticket, now time.Time) error {
	if ticket.Status.IsTerminal() {
		return ErrTerminalState
	}
	if ticket.Status != domain.TicketStatusOpen {
		return ErrInvalidTransition
	}
	ticket.Status = domain.TicketStatusInProgress
	if ticket.FirstResponseAt == nil {
		at := now
		ticket.FirstResponseAt = &at
	}
	return nil
}

// Resolve moves IN_PROGRESS -> RESOLVED and records the resolution instant
// if unset.
func Resolve(ticket *domain.Ticket, now time.Time) error {
	if ticket.Status.IsTerminal() {
		return ErrTerminalState
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return ErrInvalidTransition
	}
	ticket.Status = domain.TicketStatusResolved
	if ticket.ResolvedAt == nil {
		at := now
		ticket.ResolvedAt = &at
	}
	return nil
}

// Close moves RESOLVED -> CLOSED and records the closing instant if unset.
// CLOSED is terminal; nothing transitions out of it.
func Close(ticket *domain.Ticket, now time.Time) error {
	if ticket.Status.IsTerminal() {
		return ErrTerminalState
	}
	if ticket.Status != domain.TicketStatusResolved {
		return ErrInvalidTransition
	}
	ticket.Status = domain.TicketStatusClosed
	if ticket.ClosedAt == nil {
		at := now
		ticket.ClosedAt = &at
	}
	return nil
}
