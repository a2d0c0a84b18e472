package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/events"
	apperrors "github.com/spec-kit/facilities-helpdesk/pkg/util"
)

var ticketNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type ticketFixture struct {
	service    *TicketService
	tickets    *memTicketRepo
	history    *memHistoryRepo
	dispatcher *captureDispatcher
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	dept := &domain.Department{ID: "dept-fac", Name: "Facilities", IsActive: true}
	category := &domain.Category{
		ID:                 "cat-hvac",
		Name:               "HVAC",
		Code:               "HVAC",
		DepartmentID:       dept.ID,
		SlaResponseHours:   4,
		SlaResolutionHours: 24,
		DefaultPriority:    domain.TicketPriorityMedium,
		IsActive:           true,
	}
	tickets := newMemTicketRepo()
	history := &memHistoryRepo{}
	dispatcher := &captureDispatcher{}
	service := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CategoryRepo:   newMemCategoryRepo(category),
		DepartmentRepo: newMemDepartmentRepo(dept),
		HistoryRepo:    history,
		Dispatcher:     dispatcher,
		Clock:          func() time.Time { return ticketNow },
	})
	return &ticketFixture{service: service, tickets: tickets, history: history, dispatcher: dispatcher}
}

func facilitiesStaff(id string, role domain.StaffRole) *domain.StaffMember {
	deptID := "dept-fac"
	return &domain.StaffMember{ID: id, Name: id, Role: role, DepartmentID: &deptID, Active: true}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return domainErr.Code
}

func TestCreateTicketStampsSlaFromCategory(t *testing.T) {
	fixture := newTicketFixture(t)

	view, err := fixture.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		CategoryID:  "cat-hvac",
		Title:       "  AC not cooling  ",
		Description: "Room 204 hot since morning",
		Location:    "Room 204",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if view.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN", view.Status)
	}
	if view.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %s, want category default MEDIUM", view.Priority)
	}
	if view.Title != "AC not cooling" {
		t.Errorf("title = %q, want trimmed", view.Title)
	}
	if want := ticketNow.Add(4 * time.Hour); !view.SlaResponseDue.Equal(want) {
		t.Errorf("response due = %v, want %v", view.SlaResponseDue, want)
	}
	if want := ticketNow.Add(24 * time.Hour); !view.SlaResolutionDue.Equal(want) {
		t.Errorf("resolution due = %v, want %v", view.SlaResolutionDue, want)
	}
	if !view.CreatedAt.Equal(ticketNow) {
		t.Errorf("created at = %v, want the service clock instant %v", view.CreatedAt, ticketNow)
	}
	stored, err := fixture.tickets.GetByID(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.SlaResponseDue.Equal(stored.CreatedAt.Add(4 * time.Hour)) {
		t.Errorf("stored response due = %v, want created_at+4h (%v)", stored.SlaResponseDue, stored.CreatedAt.Add(4*time.Hour))
	}
	if !stored.SlaResolutionDue.Equal(stored.CreatedAt.Add(24 * time.Hour)) {
		t.Errorf("stored resolution due = %v, want created_at+24h (%v)", stored.SlaResolutionDue, stored.CreatedAt.Add(24*time.Hour))
	}
	if view.IsSlaResponseBreached || view.IsSlaResolutionBreached {
		t.Error("fresh ticket must not be breached")
	}
	if len(view.TicketNumber) == 0 {
		t.Error("ticket number not generated")
	}
	if got := fixture.dispatcher.byType(events.EventTicketCreated); len(got) != 1 {
		t.Errorf("created events = %d, want 1", len(got))
	}
}

func TestCreateTicketPriorityOverride(t *testing.T) {
	fixture := newTicketFixture(t)

	view, err := fixture.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		CategoryID: "cat-hvac",
		Title:      "Server room overheating",
		Priority:   domain.TicketPriorityCritical,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if view.Priority != domain.TicketPriorityCritical {
		t.Errorf("priority = %s, want CRITICAL override", view.Priority)
	}

	view, err = fixture.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		CategoryID: "cat-hvac",
		Title:      "Thermostat stuck",
		Priority:   domain.TicketPriority("WHENEVER"),
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if view.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %s, unknown override must fall back to default", view.Priority)
	}
}

func TestCreateTicketRegistryChecks(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()

	_, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-missing", Title: "x"})
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Errorf("unknown category code = %s, want NOT_FOUND", code)
	}

	inactive := &domain.Category{ID: "cat-old", DepartmentID: "dept-fac", SlaResponseHours: 1, SlaResolutionHours: 2, DefaultPriority: domain.TicketPriorityLow}
	fixture.service.categories.(*memCategoryRepo).byID[inactive.ID] = inactive
	_, err = fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-old", Title: "x"})
	if code := domainCode(t, err); code != "CONFLICT" {
		t.Errorf("inactive category code = %s, want CONFLICT", code)
	}
}

func TestLifecycleTransitionsRecordHistory(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()
	actor := facilitiesStaff("staff-1", domain.StaffRoleTechnician)

	view, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-hvac", Title: "Broken vent"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	view, err = fixture.service.StartTicket(ctx, actor, view.ID)
	if err != nil {
		t.Fatalf("StartTicket: %v", err)
	}
	if view.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", view.Status)
	}
	if view.FirstResponseAt == nil || !view.FirstResponseAt.Equal(ticketNow) {
		t.Errorf("first response = %v, want %v", view.FirstResponseAt, ticketNow)
	}

	view, err = fixture.service.ResolveTicket(ctx, actor, view.ID)
	if err != nil {
		t.Fatalf("ResolveTicket: %v", err)
	}
	view, err = fixture.service.CloseTicket(ctx, actor, view.ID)
	if err != nil {
		t.Fatalf("CloseTicket: %v", err)
	}
	if view.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %s, want CLOSED", view.Status)
	}

	statusChanges := fixture.history.byType(domain.ChangeTypeStatus)
	if len(statusChanges) != 3 {
		t.Fatalf("status history entries = %d, want 3", len(statusChanges))
	}
	for _, entry := range statusChanges {
		if entry.ChangedByType != domain.ActorTypeStaff || entry.ChangedByID == nil || *entry.ChangedByID != actor.ID {
			t.Errorf("history actor = %s/%v, want STAFF/staff-1", entry.ChangedByType, entry.ChangedByID)
		}
	}
	if got := fixture.dispatcher.byType(events.EventTicketStatusChanged); len(got) != 3 {
		t.Errorf("status events = %d, want 3", len(got))
	}
}

func TestAssignTicketRecordsAssigneeChange(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()
	actor := facilitiesStaff("staff-sup", domain.StaffRoleSupervisor)

	view, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-hvac", Title: "Leaky pipe"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	view, err = fixture.service.AssignTicket(ctx, actor, view.ID, "staff-tech")
	if err != nil {
		t.Fatalf("AssignTicket: %v", err)
	}
	if view.AssigneeID == nil || *view.AssigneeID != "staff-tech" {
		t.Fatalf("assignee = %v, want staff-tech", view.AssigneeID)
	}
	changes := fixture.history.byType(domain.ChangeTypeAssignee)
	if len(changes) != 1 {
		t.Fatalf("assignee history entries = %d, want 1", len(changes))
	}
	if got := changes[0].NewValue["assignee_staff_id"]; got == nil {
		t.Error("assignee history missing new value")
	}
	if got := fixture.dispatcher.byType(events.EventTicketAssigned); len(got) != 1 {
		t.Errorf("assigned events = %d, want 1", len(got))
	}
}

func TestTransitionRetriesAfterBenignVersionConflict(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()
	actor := facilitiesStaff("staff-1", domain.StaffRoleTechnician)

	view, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-hvac", Title: "Noisy fan"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	// A competing writer re-assigns the ticket between this transition's
	// read and write. The first write must hit the version guard; the
	// retry re-reads and succeeds on top of the fresh row.
	fixture.tickets.beforeUpdate = func() {
		fixture.tickets.mutate(view.ID, func(row *domain.Ticket) {
			assignee := "staff-other"
			row.AssigneeID = &assignee
		})
	}

	updated, err := fixture.service.StartTicket(ctx, actor, view.ID)
	if err != nil {
		t.Fatalf("StartTicket after conflict: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", updated.Status)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != "staff-other" {
		t.Errorf("assignee = %v, competing write must survive the retry", updated.AssigneeID)
	}
}

func TestTransitionFailsWhenConflictingWriterWins(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()
	actor := facilitiesStaff("staff-1", domain.StaffRoleTechnician)

	view, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-hvac", Title: "Stuck damper"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	// The competing writer performs the same transition first. The retry
	// re-reads IN_PROGRESS and must reject a second start.
	fixture.tickets.beforeUpdate = func() {
		fixture.tickets.mutate(view.ID, func(row *domain.Ticket) {
			row.Status = domain.TicketStatusInProgress
			now := ticketNow
			row.FirstResponseAt = &now
		})
	}

	_, err = fixture.service.StartTicket(ctx, actor, view.ID)
	if code := domainCode(t, err); code != "INVALID_TRANSITION" {
		t.Errorf("code = %s, want INVALID_TRANSITION", code)
	}
}

func TestConcurrentStartExactlyOneSucceeds(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()

	view, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-hvac", Title: "Compressor fault"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := facilitiesStaff("staff-"+string(rune('a'+i)), domain.StaffRoleTechnician)
			_, results[i] = fixture.service.StartTicket(ctx, actor, view.ID)
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		rejected++
		if code := domainCode(t, err); code != "INVALID_TRANSITION" {
			t.Errorf("loser code = %s, want INVALID_TRANSITION", code)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("succeeded=%d rejected=%d, want exactly one of each", succeeded, rejected)
	}

	stored, err := fixture.tickets.GetByID(ctx, view.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", stored.Status)
	}
	if stored.FirstResponseAt == nil {
		t.Error("first response not recorded")
	}
}

func TestStaffAccessScopedToDepartment(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()

	view, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-hvac", Title: "Door jammed"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	otherDept := "dept-it"
	outsider := &domain.StaffMember{ID: "staff-it", Role: domain.StaffRoleTechnician, DepartmentID: &otherDept, Active: true}
	if _, _, err := fixture.service.GetTicketForStaff(ctx, outsider, view.ID); err == nil {
		t.Fatal("outsider must not read another department's ticket")
	} else if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("code = %s, want FORBIDDEN", code)
	}

	admin := &domain.StaffMember{ID: "staff-admin", Role: domain.StaffRoleAdmin, Active: true}
	if _, _, err := fixture.service.GetTicketForStaff(ctx, admin, view.ID); err != nil {
		t.Errorf("admin read: %v", err)
	}

	agent := facilitiesStaff("staff-1", domain.StaffRoleTechnician)
	if _, err := fixture.service.ListStaffTickets(ctx, agent, TicketStaffFilter{}); err != nil {
		t.Fatalf("ListStaffTickets: %v", err)
	}
	filter := fixture.tickets.lastFilter
	if filter == nil || filter.DepartmentID == nil || *filter.DepartmentID != "dept-fac" {
		t.Error("non-admin listing must be pinned to the staff department")
	}

	if _, err := fixture.service.ListStaffTickets(ctx, admin, TicketStaffFilter{}); err != nil {
		t.Fatalf("ListStaffTickets admin: %v", err)
	}
	if fixture.tickets.lastFilter.DepartmentID != nil {
		t.Error("admin listing must not be department scoped")
	}
}

func TestGetTicketForUserEnforcesOwnership(t *testing.T) {
	fixture := newTicketFixture(t)
	ctx := context.Background()

	view, err := fixture.service.CreateTicket(ctx, "user-1", TicketCreateInput{CategoryID: "cat-hvac", Title: "Window stuck"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if _, err := fixture.service.GetTicketForUser(ctx, "user-1", view.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err = fixture.service.GetTicketForUser(ctx, "user-2", view.ID)
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Errorf("code = %s, want FORBIDDEN", code)
	}
}

func TestTransitionRequiresStaffActor(t *testing.T) {
	fixture := newTicketFixture(t)
	_, err := fixture.service.StartTicket(context.Background(), nil, "ticket-1")
	if code := domainCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("code = %s, want UNAUTHORIZED", code)
	}
}
