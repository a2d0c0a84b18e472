package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facilities-helpdesk/internal/api/dto"
	"github.com/spec-kit/facilities-helpdesk/internal/auth"
	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/service"
)

// StaffHandler exposes staff auth and admin registry endpoints.
type StaffHandler struct {
	authService *service.AuthService
	orgService  *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, orgService *service.StaffService) *StaffHandler {
	return &StaffHandler{authService: authService, orgService: orgService}
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	staff, token, exp, err := h.authService.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": dto.NewStaffResponse(staff),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "current and new password required")
	}

	var subjectID string
	switch principal.SubjectType {
	case domain.SubjectTypeUser:
		subjectID = principal.User.ID
	case domain.SubjectTypeStaff:
		subjectID = principal.Staff.ID
	default:
		return fiber.NewError(http.StatusUnauthorized, "unknown subject")
	}

	if err := h.authService.ChangePassword(c.Context(), principal.SubjectType, subjectID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// CreateDepartment handles POST /staff/departments.
func (h *StaffHandler) CreateDepartment(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name required")
	}
	dept, err := h.orgService.CreateDepartment(c.Context(), admin, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// ListDepartments handles GET /staff/departments.
func (h *StaffHandler) ListDepartments(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	depts, err := h.orgService.ListDepartments(c.Context(), admin)
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		resp = append(resp, dto.NewDepartmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// UpdateDepartment handles PUT /staff/departments/:id.
func (h *StaffHandler) UpdateDepartment(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	dept, err := h.orgService.GetDepartmentByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name != "" {
		dept.Name = req.Name
	}
	dept.Description = req.Description
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	updated, err := h.orgService.UpdateDepartment(c.Context(), admin, dept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(updated)})
}

// CreateCategory handles POST /staff/categories.
func (h *StaffHandler) CreateCategory(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Code == "" || req.DepartmentID == "" {
		return fiber.NewError(http.StatusBadRequest, "name, code, department_id required")
	}
	category, err := h.orgService.CreateCategory(c.Context(), admin, service.CategoryInput{
		Name:               req.Name,
		Code:               req.Code,
		DepartmentID:       req.DepartmentID,
		SlaResponseHours:   req.SlaResponseHours,
		SlaResolutionHours: req.SlaResolutionHours,
		DefaultPriority:    req.DefaultPriority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// ListCategories handles GET /staff/categories.
func (h *StaffHandler) ListCategories(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	activeOnly := parseBoolQuery(c, "active_only", false)
	categories, err := h.orgService.ListCategories(c.Context(), admin, activeOnly)
	if err != nil {
		return err
	}
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, dto.NewCategoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetCategory handles GET /staff/categories/:id.
func (h *StaffHandler) GetCategory(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	category, err := h.orgService.GetCategoryByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// UpdateCategory handles PUT /staff/categories/:id.
func (h *StaffHandler) UpdateCategory(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	category, err := h.orgService.UpdateCategory(c.Context(), admin, c.Params("id"), service.CategoryUpdate{
		Name:               req.Name,
		SlaResponseHours:   req.SlaResponseHours,
		SlaResolutionHours: req.SlaResolutionHours,
		DefaultPriority:    req.DefaultPriority,
		IsActive:           req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// CreateStaff handles POST /staff/members.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}
	staff, err := h.orgService.CreateStaffMember(c.Context(), admin, req.Name, req.Email, req.Password, req.Role, req.DepartmentID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// ListStaff handles GET /staff/members.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filters := parseStaffListFilters(c)
	list, err := h.orgService.ListStaffMembers(c.Context(), admin, filters)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewStaffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetStaff handles GET /staff/members/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	staff, err := h.orgService.GetStaffMemberByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// UpdateStaff handles PUT /staff/members/:id.
func (h *StaffHandler) UpdateStaff(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	updated, err := h.orgService.UpdateStaffMember(c.Context(), admin, c.Params("id"), service.StaffUpdate{
		Name:         req.Name,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Active:       req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(updated)})
}

func parseBoolQuery(c *fiber.Ctx, key string, defaultVal bool) bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func parseStaffListFilters(c *fiber.Ctx) service.StaffListFilters {
	var filters service.StaffListFilters
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filters.Role = &role
	}
	if deptID := c.Query("department_id"); deptID != "" {
		filters.DepartmentID = &deptID
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filters.Active = &val
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filters.Offset = (page - 1) * pageSize
	filters.Limit = pageSize
	return filters
}
