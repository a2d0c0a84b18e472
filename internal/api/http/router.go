package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facilities-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/facilities-helpdesk/internal/auth"
	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Schedule       *handlers.ScheduleHandler
	Triage         *handlers.TriageHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Post("/password/change", cfg.Staff.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(
		domain.StaffRoleTechnician, domain.StaffRoleSupervisor, domain.StaffRoleAdmin))
	staff.Get("/tickets", cfg.StaffTickets.ListStaffTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetStaffTicket)
	staff.Get("/tickets/:id/candidates", cfg.StaffTickets.ListCandidates)
	staff.Post("/tickets/:id/start", cfg.StaffTickets.StartTicket)
	staff.Post("/tickets/:id/resolve", cfg.StaffTickets.ResolveTicket)
	staff.Post("/tickets/:id/close", cfg.StaffTickets.CloseTicket)

	supervisors := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(
		domain.StaffRoleSupervisor, domain.StaffRoleAdmin))
	supervisors.Post("/tickets/:id/assign", cfg.StaffTickets.AssignTicket)
	supervisors.Get("/triage/duplicates", cfg.Triage.ListDuplicateGroups)
	supervisors.Get("/triage/compliance", cfg.Triage.GetComplianceRate)
	supervisors.Get("/members/:id/schedule/:date", cfg.Schedule.GetDaySchedule)
	supervisors.Put("/members/:id/schedule/:date", cfg.Schedule.SetDayState)
	supervisors.Post("/members/:id/schedule/:date/toggle", cfg.Schedule.ToggleSlot)
	supervisors.Get("/members/:id/eligibility", cfg.Schedule.GetEligibility)

	admins := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleAdmin))
	admins.Post("/departments", cfg.Staff.CreateDepartment)
	admins.Get("/departments", cfg.Staff.ListDepartments)
	admins.Put("/departments/:id", cfg.Staff.UpdateDepartment)
	admins.Post("/categories", cfg.Staff.CreateCategory)
	admins.Get("/categories", cfg.Staff.ListCategories)
	admins.Get("/categories/:id", cfg.Staff.GetCategory)
	admins.Put("/categories/:id", cfg.Staff.UpdateCategory)
	admins.Post("/members", cfg.Staff.CreateStaff)
	admins.Get("/members", cfg.Staff.ListStaff)
	admins.Get("/members/:id", cfg.Staff.GetStaff)
	admins.Put("/members/:id", cfg.Staff.UpdateStaff)
}
