package dto

import (
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/roster"
	"github.com/spec-kit/facilities-helpdesk/internal/triage"
)

// DuplicateMemberResponse is one ticket inside a duplicate group.
type DuplicateMemberResponse struct {
	ID           string    `json:"id"`
	TicketNumber string    `json:"ticket_number"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
}

// DuplicateGroupResponse is one suspected cluster of duplicate reports.
type DuplicateGroupResponse struct {
	CategoryID string                    `json:"category_id"`
	Location   string                    `json:"location"`
	Count      int                       `json:"count"`
	Members    []DuplicateMemberResponse `json:"members"`
}

// NewDuplicateGroupResponses maps triage groups.
func NewDuplicateGroupResponses(groups []triage.DuplicateGroup) []DuplicateGroupResponse {
	out := make([]DuplicateGroupResponse, 0, len(groups))
	for _, g := range groups {
		members := make([]DuplicateMemberResponse, 0, len(g.Members))
		for _, t := range g.Members {
			members = append(members, DuplicateMemberResponse{
				ID:           t.ID,
				TicketNumber: t.TicketNumber,
				Title:        t.Title,
				CreatedAt:    t.CreatedAt,
			})
		}
		out = append(out, DuplicateGroupResponse{
			CategoryID: g.CategoryID,
			Location:   g.Location,
			Count:      g.Count,
			Members:    members,
		})
	}
	return out
}

// ComplianceResponse reports the rounded resolution compliance percentage.
type ComplianceResponse struct {
	ComplianceRate int `json:"compliance_rate"`
}

// CandidateResponse is one ranked assignment option.
type CandidateResponse struct {
	StaffID     string             `json:"staff_id"`
	Name        string             `json:"name"`
	Role        string             `json:"role"`
	Eligibility roster.Eligibility `json:"eligibility"`
	Selectable  bool               `json:"selectable"`
}

// NewCandidateResponses maps advisor candidates.
func NewCandidateResponses(candidates []triage.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateResponse{
			StaffID:     c.Staff.ID,
			Name:        c.Staff.Name,
			Role:        string(c.Staff.Role),
			Eligibility: c.Eligibility,
			Selectable:  c.Selectable,
		})
	}
	return out
}
