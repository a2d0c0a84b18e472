package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facilities-helpdesk/internal/api/dto"
	"github.com/spec-kit/facilities-helpdesk/internal/service"
)

// ScheduleHandler exposes roster day-state endpoints for supervisors.
type ScheduleHandler struct {
	schedule *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: scheduleService}
}

// SetDayState handles PUT /staff/members/:id/schedule/:date.
func (h *ScheduleHandler) SetDayState(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	day, err := parseDay(c.Params("date"))
	if err != nil {
		return err
	}
	var req dto.SetDayStateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	shifts, err := h.schedule.SetDayState(c.Context(), actor, c.Params("id"), day, service.DayState{
		OnLeave: req.OnLeave,
		Slots:   req.Slots,
		Note:    req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewShiftResponses(shifts)})
}

// ToggleSlot handles POST /staff/members/:id/schedule/:date/toggle.
func (h *ScheduleHandler) ToggleSlot(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	day, err := parseDay(c.Params("date"))
	if err != nil {
		return err
	}
	var req dto.ToggleSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Slot == nil && !req.Leave {
		return fiber.NewError(http.StatusBadRequest, "slot or leave required")
	}
	shifts, err := h.schedule.ToggleSlot(c.Context(), actor, c.Params("id"), day, req.Slot, req.Leave)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewShiftResponses(shifts)})
}

// GetDaySchedule handles GET /staff/members/:id/schedule/:date.
func (h *ScheduleHandler) GetDaySchedule(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	day, err := parseDay(c.Params("date"))
	if err != nil {
		return err
	}
	shifts, err := h.schedule.DaySchedule(c.Context(), c.Params("id"), day)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewShiftResponses(shifts)})
}

// GetEligibility handles GET /staff/members/:id/eligibility.
func (h *ScheduleHandler) GetEligibility(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	at := time.Now().UTC()
	if parsed := parseTime(c.Query("at")); parsed != nil {
		at = *parsed
	}
	eligibility, err := h.schedule.Eligibility(c.Context(), c.Params("id"), at)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EligibilityResponse{
		StaffID:     c.Params("id"),
		At:          at,
		Eligibility: eligibility,
	}})
}

func parseDay(val string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, fiber.NewError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return day, nil
}
