package triage

import (
	"testing"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

var groupBase = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func openTicket(id, categoryID, location string, offset time.Duration) domain.Ticket {
	return domain.Ticket{
		ID:         id,
		CategoryID: categoryID,
		Location:   location,
		Status:     domain.TicketStatusOpen,
		CreatedAt:  groupBase.Add(offset),
	}
}

func TestGroupDuplicatesBasic(t *testing.T) {
	tickets := []domain.Ticket{
		openTicket("a", "cat-1", "Room 101", 0),
		openTicket("b", "cat-1", "Room 101", time.Minute),
		openTicket("c", "cat-1", "Room 202", 2*time.Minute),
	}

	groups := GroupDuplicates(tickets)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	g := groups[0]
	if g.CategoryID != "cat-1" || g.Location != "Room 101" || g.Count != 2 {
		t.Fatalf("unexpected group %+v", g)
	}
	if g.Members[0].ID != "a" || g.Members[1].ID != "b" {
		t.Error("members must be ordered oldest first")
	}
}

func TestGroupDuplicatesLocationTrimmedExactMatch(t *testing.T) {
	tickets := []domain.Ticket{
		openTicket("a", "cat-1", "  Room 101 ", 0),
		openTicket("b", "cat-1", "Room 101", time.Minute),
		// Case differs, so this is a distinct location.
		openTicket("c", "cat-1", "room 101", 2*time.Minute),
	}

	groups := GroupDuplicates(tickets)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].Count != 2 {
		t.Errorf("count = %d, want 2", groups[0].Count)
	}
}

func TestGroupDuplicatesSkipsSettledAndBlank(t *testing.T) {
	resolved := openTicket("r", "cat-1", "Room 101", 0)
	resolved.Status = domain.TicketStatusResolved

	tickets := []domain.Ticket{
		resolved,
		openTicket("a", "cat-1", "Room 101", time.Minute),
		openTicket("blank", "cat-1", "   ", 2*time.Minute),
		openTicket("nocat", "", "Room 101", 3*time.Minute),
	}

	if groups := GroupDuplicates(tickets); len(groups) != 0 {
		t.Fatalf("groups = %d, want 0", len(groups))
	}
}

func TestGroupOrdering(t *testing.T) {
	tickets := []domain.Ticket{
		// Two-member group created first.
		openTicket("a1", "cat-1", "Lobby", 0),
		openTicket("a2", "cat-1", "Lobby", time.Minute),
		// Three-member group created later, still ranks first on size.
		openTicket("b1", "cat-2", "Roof", time.Hour),
		openTicket("b2", "cat-2", "Roof", time.Hour+time.Minute),
		openTicket("b3", "cat-2", "Roof", time.Hour+2*time.Minute),
		// Two-member group created after the Lobby pair.
		openTicket("c1", "cat-3", "Garage", 2*time.Hour),
		openTicket("c2", "cat-3", "Garage", 2*time.Hour+time.Minute),
	}

	groups := GroupDuplicates(tickets)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].Location != "Roof" {
		t.Errorf("largest group first, got %s", groups[0].Location)
	}
	if groups[1].Location != "Lobby" || groups[2].Location != "Garage" {
		t.Errorf("size ties break on earliest creation: got %s then %s",
			groups[1].Location, groups[2].Location)
	}
}
