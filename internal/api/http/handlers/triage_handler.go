package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facilities-helpdesk/internal/api/dto"
	"github.com/spec-kit/facilities-helpdesk/internal/service"
)

// TriageHandler exposes duplicate grouping and compliance reporting.
type TriageHandler struct {
	triage *service.TriageService
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triageService *service.TriageService) *TriageHandler {
	return &TriageHandler{triage: triageService}
}

// ListDuplicateGroups handles GET /staff/triage/duplicates.
func (h *TriageHandler) ListDuplicateGroups(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	groups, err := h.triage.DuplicateGroups(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDuplicateGroupResponses(groups)})
}

// GetComplianceRate handles GET /staff/triage/compliance.
func (h *TriageHandler) GetComplianceRate(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	rate, err := h.triage.ComplianceRate(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ComplianceResponse{ComplianceRate: rate}})
}
