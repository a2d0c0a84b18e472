// Package roster resolves shift-based duty eligibility for staff members.
package roster

import (
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// Eligibility is the duty state of a staff member at a given instant.
type Eligibility string

const (
	EligibilityOnDuty      Eligibility = "ON_DUTY"
	EligibilityOnLeave     Eligibility = "ON_LEAVE"
	EligibilityUnscheduled Eligibility = "UNSCHEDULED"
)

// MinuteOfDay returns the minutes elapsed since midnight of t's day.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DayOf truncates t to midnight in its location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ResolveEligibility determines the duty state given all of one staff
// member's shift rows for a single day and the query instant.
//
// A LEAVE row anywhere in the day short-circuits to ON_LEAVE regardless of
// other rows. Otherwise the instant is ON_DUTY when its time-of-day falls
// within any non-leave window, boundaries inclusive; overlapping windows
// act as a union of coverage. Rows from other days are ignored.
func ResolveEligibility(shifts []domain.Shift, instant time.Time) Eligibility {
	minute := MinuteOfDay(instant)
	onDuty := false
	for _, shift := range shifts {
		if !SameDay(shift.Date, instant) {
			continue
		}
		if shift.Status == domain.ShiftStatusLeave {
			return EligibilityOnLeave
		}
		if shift.Covers(minute) {
			onDuty = true
		}
	}
	if onDuty {
		return EligibilityOnDuty
	}
	return EligibilityUnscheduled
}
