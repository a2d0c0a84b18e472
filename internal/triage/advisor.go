package triage

import (
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/roster"
)

// Candidate is one ranked assignment option for a ticket.
//
// On-leave candidates are listed but flagged non-selectable; whether to
// enforce a hard exclusion is left to the caller.
type Candidate struct {
	Staff       domain.StaffMember
	Eligibility roster.Eligibility
	Selectable  bool
}

// CandidatesFor ranks staff as assignment options for the ticket at the
// given instant. Only active staff of the ticket's department holding an
// assignable role are considered. Ordering is ON_DUTY, then UNSCHEDULED,
// then ON_LEAVE, with name-ascending ties inside each band. shiftsByStaff
// maps staff ID to that member's shift rows for the day of now.
func CandidatesFor(ticket *domain.Ticket, staffRoster []domain.StaffMember, shiftsByStaff map[string][]domain.Shift, now time.Time) []Candidate {
	candidates := make([]Candidate, 0, len(staffRoster))
	for _, staff := range staffRoster {
		if !staff.Active || !staff.Role.CanBeAssigned() {
			continue
		}
		if staff.DepartmentID == nil || *staff.DepartmentID != ticket.DepartmentID {
			continue
		}
		eligibility := roster.ResolveEligibility(shiftsByStaff[staff.ID], now)
		candidates = append(candidates, Candidate{
			Staff:       staff,
			Eligibility: eligibility,
			Selectable:  eligibility != roster.EligibilityOnLeave,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := eligibilityRank(candidates[i].Eligibility), eligibilityRank(candidates[j].Eligibility)
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(candidates[i].Staff.Name) < strings.ToLower(candidates[j].Staff.Name)
	})
	return candidates
}

func eligibilityRank(e roster.Eligibility) int {
	switch e {
	case roster.EligibilityOnDuty:
		return 0
	case roster.EligibilityUnscheduled:
		return 1
	default:
		return 2
	}
}
