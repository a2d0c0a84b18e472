package domain

import "time"

// ShiftStatus enumerates the kinds of shift rows a staff member can hold.
type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "SCHEDULED"
	ShiftStatusOnCall    ShiftStatus = "ON_CALL"
	ShiftStatusLeave     ShiftStatus = "LEAVE"
)

// Shift is one scheduling row for a staff member on a calendar day.
//
// Start and End are minutes-of-day offsets into Date, inclusive at both
// ends. A LEAVE row suppresses on-duty eligibility for the whole day no
// matter what other rows exist; the schedule service keeps the invariant
// that a day holds either one LEAVE row or any number of working rows,
// never both.
type Shift struct {
	ID           string
	StaffID      string
	DepartmentID string
	Date         time.Time
	StartMinute  int
	EndMinute    int
	Status       ShiftStatus
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Covers reports whether the minute-of-day falls within the shift window.
func (s Shift) Covers(minuteOfDay int) bool {
	return minuteOfDay >= s.StartMinute && minuteOfDay <= s.EndMinute
}
