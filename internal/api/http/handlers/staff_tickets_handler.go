package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facilities-helpdesk/internal/api/dto"
	"github.com/spec-kit/facilities-helpdesk/internal/auth"
	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/service"
)

// StaffTicketsHandler handles staff ticket queue and transition endpoints.
type StaffTicketsHandler struct {
	tickets *service.TicketService
	triage  *service.TriageService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService, triageService *service.TriageService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService, triage: triageService}
}

// ListStaffTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListStaffTickets(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filter := parseStaffTicketFilter(c)
	tickets, err := h.tickets.ListStaffTickets(c.Context(), staff, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// GetStaffTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetStaffTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, history, err := h.tickets.GetTicketForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket":  dto.NewTicketResponse(ticket),
		"history": dto.NewTicketHistoryResponses(history),
	}})
}

// AssignTicket POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) AssignTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.AssigneeID == "" {
		return fiber.NewError(http.StatusBadRequest, "assignee_id required")
	}
	ticket, err := h.tickets.AssignTicket(c.Context(), staff, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// StartTicket POST /staff/tickets/:id/start.
func (h *StaffTicketsHandler) StartTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.StartTicket(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ResolveTicket POST /staff/tickets/:id/resolve.
func (h *StaffTicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.ResolveTicket(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CloseTicket POST /staff/tickets/:id/close.
func (h *StaffTicketsHandler) CloseTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.CloseTicket(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListCandidates GET /staff/tickets/:id/candidates.
func (h *StaffTicketsHandler) ListCandidates(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	candidates, err := h.triage.CandidatesFor(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCandidateResponses(candidates)})
}

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, fiber.NewError(http.StatusUnauthorized, "staff required")
	}
	return principal.Staff, nil
}

func parseStaffTicketFilter(c *fiber.Ctx) service.TicketStaffFilter {
	filter := service.TicketStaffFilter{}
	if deptID := c.Query("department_id"); deptID != "" {
		filter.DepartmentID = &deptID
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if assignee := c.Query("assignee_staff_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorities := c.Query("priority"); priorities != "" {
		for _, part := range strings.Split(priorities, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if createdFrom := parseTime(c.Query("created_from")); createdFrom != nil {
		filter.CreatedFrom = createdFrom
	}
	if createdTo := parseTime(c.Query("created_to")); createdTo != nil {
		filter.CreatedTo = createdTo
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
