// Package triage provides admin-facing aggregate views: probable duplicate
// clusters and ranked assignment candidates. All operations are pure reads
// over their inputs and skip malformed records instead of failing, so one
// corrupt ticket never blocks a triage view.
package triage

import (
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// DuplicateGroup is a cluster of unsettled tickets sharing a category and
// location, suspected to describe the same incident. Derived on demand,
// never persisted.
type DuplicateGroup struct {
	CategoryID string
	Location   string
	Members    []domain.Ticket
	Count      int
}

type groupKey struct {
	categoryID string
	location   string
}

// GroupDuplicates clusters open and in-progress tickets by exact
// (category, trimmed location) match. Only keys with two or more members
// form a group. Groups are ordered by member count descending, ties broken
// by the earliest member creation time ascending. Tickets without a
// category or location are skipped.
func GroupDuplicates(tickets []domain.Ticket) []DuplicateGroup {
	buckets := make(map[groupKey][]domain.Ticket)
	for _, ticket := range tickets {
		if ticket.Status.IsSettled() {
			continue
		}
		location := strings.TrimSpace(ticket.Location)
		if ticket.CategoryID == "" || location == "" {
			continue
		}
		key := groupKey{categoryID: ticket.CategoryID, location: location}
		buckets[key] = append(buckets[key], ticket)
	}

	groups := make([]DuplicateGroup, 0, len(buckets))
	for key, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		})
		groups = append(groups, DuplicateGroup{
			CategoryID: key.categoryID,
			Location:   key.location,
			Members:    members,
			Count:      len(members),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return earliestCreation(groups[i]).Before(earliestCreation(groups[j]))
	})
	return groups
}

func earliestCreation(group DuplicateGroup) time.Time {
	// Members are already sorted oldest-first.
	return group.Members[0].CreatedAt
}
