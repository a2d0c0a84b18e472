package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/events"
	"github.com/spec-kit/facilities-helpdesk/internal/lifecycle"
	"github.com/spec-kit/facilities-helpdesk/internal/repository"
	"github.com/spec-kit/facilities-helpdesk/internal/sla"
	apperrors "github.com/spec-kit/facilities-helpdesk/pkg/util"
)

// Clock supplies the current instant. Injected so every SLA computation is
// deterministic under test.
type Clock func() time.Time

// TicketService coordinates ticket workflows: creation with SLA stamping,
// lifecycle transitions, and breach-flag decoration on reads.
type TicketService struct {
	tickets     repository.TicketRepository
	categories  repository.CategoryRepository
	departments repository.DepartmentRepository
	history     repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
	clock       Clock
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CategoryRepo   repository.CategoryRepository
	DepartmentRepo repository.DepartmentRepository
	HistoryRepo    repository.TicketHistoryRepository
	Dispatcher     events.Dispatcher
	Clock          Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Location    string
	Priority    domain.TicketPriority
}

// TicketView is a ticket decorated with breach flags evaluated at view time.
type TicketView struct {
	domain.Ticket
	IsSlaResponseBreached   bool
	IsSlaResolutionBreached bool
}

// TicketUserFilter describes reporter listing filters.
type TicketUserFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStaffFilter describes staff listing filters.
type TicketStaffFilter struct {
	DepartmentID *string
	CategoryID   *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		categories:  deps.CategoryRepo,
		departments: deps.DepartmentRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		clock:       clock,
	}
}

// CreateTicket files a ticket for a reporter. Priority defaults to the
// category's default unless a valid override is supplied; SLA due times are
// stamped once, here, from the category's hours.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*TicketView, error) {
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewConflict("category inactive", map[string]any{"category_id": category.ID})
	}
	dept, err := s.departments.GetByID(ctx, category.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": dept.ID})
	}

	now := s.clock()
	responseDue, resolutionDue, err := sla.ComputeDueTimes(now, category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	priority := category.DefaultPriority
	if input.Priority != "" && domain.ValidPriority(input.Priority) {
		priority = input.Priority
	}

	// The ticket's stored creation time is the same instant the due times
	// were computed from, so due = created_at + hours holds exactly.
	ticket := &domain.Ticket{
		TicketNumber:     generateTicketNumber(),
		CreatedAt:        now,
		UpdatedAt:        now,
		ReporterID:       userID,
		CategoryID:       category.ID,
		DepartmentID:     category.DepartmentID,
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Location:         strings.TrimSpace(input.Location),
		Status:           domain.TicketStatusOpen,
		Priority:         priority,
		SlaResponseDue:   responseDue,
		SlaResolutionDue: resolutionDue,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			CategoryID:   ticket.CategoryID,
			DepartmentID: ticket.DepartmentID,
			Priority:     ticket.Priority,
			Location:     ticket.Location,
			Title:        ticket.Title,
		},
	})
	return s.view(ticket, now), nil
}

// ListUserTickets returns paginated tickets for a reporter.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketUserFilter) ([]TicketView, error) {
	repoFilter := repository.TicketFilter{
		ReporterID:  &userID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.views(tickets), nil
}

// GetTicketForUser fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*TicketView, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.ReporterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.view(ticket, s.clock()), nil
}

// ListStaffTickets returns tickets accessible to staff.
func (s *TicketService) ListStaffTickets(ctx context.Context, staff *domain.StaffMember, filter TicketStaffFilter) ([]TicketView, error) {
	repoFilter := repository.TicketFilter{
		DepartmentID: filter.DepartmentID,
		CategoryID:   filter.CategoryID,
		AssigneeID:   filter.AssigneeID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	s.applyStaffScope(&repoFilter, staff)
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.views(tickets), nil
}

// GetTicketForStaff fetches a ticket ensuring staff access, together with
// its audit history.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string) (*TicketView, []domain.TicketHistory, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !staffCanAccessTicket(staff, ticket) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return s.view(ticket, s.clock()), history, nil
}

// AssignTicket sets the assignee on an open or in-progress ticket.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.StaffMember, ticketID, assigneeID string) (*TicketView, error) {
	return s.applyTransition(ctx, actor, ticketID, func(ticket *domain.Ticket, _ time.Time) (domain.TicketChangeType, map[string]any, map[string]any, error) {
		oldAssignee := ticket.AssigneeID
		if err := lifecycle.Assign(ticket, assigneeID); err != nil {
			return "", nil, nil, err
		}
		return domain.ChangeTypeAssignee,
			map[string]any{"assignee_staff_id": oldAssignee},
			map[string]any{"assignee_staff_id": ticket.AssigneeID},
			nil
	}, func(ticket *domain.Ticket) events.Event {
		return events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    staffActor(actor.ID),
			Payload: events.TicketAssignedPayload{
				AssigneeStaffID: ticket.AssigneeID,
				DepartmentID:    ticket.DepartmentID,
			},
		}
	})
}

// StartTicket moves a ticket to IN_PROGRESS, recording first response.
func (s *TicketService) StartTicket(ctx context.Context, actor *domain.StaffMember, ticketID string) (*TicketView, error) {
	return s.statusTransition(ctx, actor, ticketID, lifecycle.Start)
}

// ResolveTicket moves a ticket to RESOLVED.
func (s *TicketService) ResolveTicket(ctx context.Context, actor *domain.StaffMember, ticketID string) (*TicketView, error) {
	return s.statusTransition(ctx, actor, ticketID, lifecycle.Resolve)
}

// CloseTicket moves a ticket to CLOSED.
func (s *TicketService) CloseTicket(ctx context.Context, actor *domain.StaffMember, ticketID string) (*TicketView, error) {
	return s.statusTransition(ctx, actor, ticketID, lifecycle.Close)
}

func (s *TicketService) statusTransition(ctx context.Context, actor *domain.StaffMember, ticketID string, transition func(*domain.Ticket, time.Time) error) (*TicketView, error) {
	return s.applyTransition(ctx, actor, ticketID, func(ticket *domain.Ticket, now time.Time) (domain.TicketChangeType, map[string]any, map[string]any, error) {
		oldStatus := ticket.Status
		if err := transition(ticket, now); err != nil {
			return "", nil, nil, err
		}
		return domain.ChangeTypeStatus,
			map[string]any{"status": oldStatus},
			map[string]any{"status": ticket.Status},
			nil
	}, func(ticket *domain.Ticket) events.Event {
		return events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    staffActor(actor.ID),
			Payload: events.TicketStatusChangedPayload{
				NewStatus: ticket.Status,
			},
		}
	})
}

// applyTransition runs a read-modify-write under the ticket's optimistic
// version guard. On a version conflict it re-reads once and re-applies, so
// of two racing identical transitions exactly one succeeds and the other
// fails against the fresh state.
func (s *TicketService) applyTransition(
	ctx context.Context,
	actor *domain.StaffMember,
	ticketID string,
	apply func(*domain.Ticket, time.Time) (domain.TicketChangeType, map[string]any, map[string]any, error),
	eventFor func(*domain.Ticket) events.Event,
) (*TicketView, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return nil, apperrors.MapError(err)
		}
		if !staffCanAccessTicket(actor, ticket) {
			return nil, apperrors.NewForbidden("access denied")
		}

		now := s.clock()
		changeType, oldValue, newValue, err := apply(ticket, now)
		if err != nil {
			return nil, apperrors.MapError(err)
		}

		if err := s.tickets.Update(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, apperrors.MapError(err)
		}

		s.recordChange(ctx, actor, ticket.ID, changeType, oldValue, newValue)
		s.publishEvent(ctx, eventFor(ticket))
		return s.view(ticket, now), nil
	}
	return nil, apperrors.NewConflict("ticket modified concurrently", map[string]any{"ticket_id": ticketID, "cause": lastErr.Error()})
}

func (s *TicketService) applyStaffScope(filter *repository.TicketFilter, staff *domain.StaffMember) {
	if staff == nil || staff.Role == domain.StaffRoleAdmin {
		return
	}
	if staff.DepartmentID != nil {
		filter.DepartmentID = staff.DepartmentID
	}
}

func staffCanAccessTicket(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	if staff.Role == domain.StaffRoleAdmin {
		return true
	}
	if staff.DepartmentID != nil && *staff.DepartmentID == ticket.DepartmentID {
		return true
	}
	return false
}

func (s *TicketService) view(ticket *domain.Ticket, now time.Time) *TicketView {
	return &TicketView{
		Ticket:                  *ticket,
		IsSlaResponseBreached:   sla.IsResponseBreached(ticket, now),
		IsSlaResolutionBreached: sla.IsResolutionBreached(ticket, now),
	}
}

func (s *TicketService) views(tickets []domain.Ticket) []TicketView {
	now := s.clock()
	result := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		result = append(result, *s.view(&tickets[i], now))
	}
	return result
}

func (s *TicketService) recordChange(ctx context.Context, actor *domain.StaffMember, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.ActorTypeStaff,
		ChangedByID:   &actor.ID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	_ = s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketNumber() string {
	return "FHD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{
		Type:    domain.SubjectTypeStaff,
		StaffID: &staffID,
	}
}
