package dto

import (
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/roster"
	"github.com/spec-kit/facilities-helpdesk/internal/service"
)

// SetDayStateRequest replaces the whole day for one staff member.
type SetDayStateRequest struct {
	OnLeave bool                `json:"on_leave"`
	Slots   []service.ShiftSlot `json:"slots"`
	Note    string              `json:"note"`
}

// ToggleSlotRequest flips one slot, or the leave flag when Leave is set.
type ToggleSlotRequest struct {
	Slot  *service.ShiftSlot `json:"slot"`
	Leave bool               `json:"leave"`
}

// ShiftResponse is one schedule row.
type ShiftResponse struct {
	ID           string             `json:"id"`
	StaffID      string             `json:"staff_id"`
	DepartmentID string             `json:"department_id"`
	Date         time.Time          `json:"date"`
	StartMinute  int                `json:"start_minute"`
	EndMinute    int                `json:"end_minute"`
	Status       domain.ShiftStatus `json:"status"`
	Note         string             `json:"note"`
}

// NewShiftResponses maps domain shifts.
func NewShiftResponses(shifts []domain.Shift) []ShiftResponse {
	out := make([]ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, ShiftResponse{
			ID:           s.ID,
			StaffID:      s.StaffID,
			DepartmentID: s.DepartmentID,
			Date:         s.Date,
			StartMinute:  s.StartMinute,
			EndMinute:    s.EndMinute,
			Status:       s.Status,
			Note:         s.Note,
		})
	}
	return out
}

// EligibilityResponse reports duty status at an instant.
type EligibilityResponse struct {
	StaffID     string             `json:"staff_id"`
	At          time.Time          `json:"at"`
	Eligibility roster.Eligibility `json:"eligibility"`
}
