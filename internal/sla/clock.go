// Package sla computes service-level deadlines and breach state for tickets.
//
// Every function takes the reference instant as an explicit parameter and
// performs no clock reads or I/O, so results are fully deterministic.
package sla

import (
	"errors"
	"math"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// ErrInvalidSLAConfig reports a category carrying a negative SLA hour value.
// This is a data-integrity problem upstream and is never silently defaulted.
var ErrInvalidSLAConfig = errors.New("category has negative SLA hours")

// ComputeDueTimes derives the response and resolution deadlines for a ticket
// created at createdAt under the given category.
func ComputeDueTimes(createdAt time.Time, category *domain.Category) (responseDue, resolutionDue time.Time, err error) {
	if category.SlaResponseHours < 0 || category.SlaResolutionHours < 0 {
		return time.Time{}, time.Time{}, ErrInvalidSLAConfig
	}
	responseDue = createdAt.Add(time.Duration(category.SlaResponseHours) * time.Hour)
	resolutionDue = createdAt.Add(time.Duration(category.SlaResolutionHours) * time.Hour)
	return responseDue, resolutionDue, nil
}

// IsResponseBreached reports whether the ticket has missed its first-response
// deadline as of now. Once any first response has been recorded the flag is
// permanently false, however late the response was; the breach is an alarm
// for tickets still waiting, not a retroactive audit mark.
func IsResponseBreached(ticket *domain.Ticket, now time.Time) bool {
	if ticket == nil || ticket.FirstResponseAt != nil {
		return false
	}
	return now.After(ticket.SlaResponseDue)
}

// IsResolutionBreached reports whether the ticket has missed its resolution
// deadline. A ticket still open past the deadline is breached; a ticket
// settled after the deadline stays breached permanently.
func IsResolutionBreached(ticket *domain.Ticket, now time.Time) bool {
	if ticket == nil {
		return false
	}
	if settled := ticket.SettledAt(); settled != nil {
		return settled.After(ticket.SlaResolutionDue)
	}
	if ticket.Status.IsSettled() {
		// Settled status without a timestamp is a malformed record; treat
		// as compliant rather than poisoning aggregate views.
		return false
	}
	return now.After(ticket.SlaResolutionDue)
}

// IsBreached reports whether either SLA deadline has been missed.
func IsBreached(ticket *domain.Ticket, now time.Time) bool {
	return IsResponseBreached(ticket, now) || IsResolutionBreached(ticket, now)
}

// ComplianceRate returns the percentage of tickets with neither SLA breached
// as of now, rounded to the nearest whole percent. An empty set is fully
// compliant.
func ComplianceRate(tickets []domain.Ticket, now time.Time) int {
	total := len(tickets)
	if total == 0 {
		return 100
	}
	breached := 0
	for i := range tickets {
		if IsBreached(&tickets[i], now) {
			breached++
		}
	}
	return int(math.Round(100 * float64(total-breached) / float64(total)))
}
