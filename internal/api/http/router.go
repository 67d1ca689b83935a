package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Reports        *handlers.ReportsHandler
	Staff          *handlers.StaffHandler
	Admin          *handlers.AdminHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Reporter surface.
	app.Post("/reports", cfg.Reports.Create)
	app.Get("/reports/history/:reporterId", cfg.Reports.History)
	app.Get("/tasks/:id", cfg.Reports.Get)
	app.Post("/students/register", cfg.Staff.RegisterStudent)
	app.Get("/students/:id/notifications", cfg.Notifications.ListForStudent)
	app.Post("/students/:id/notifications/:notificationId/read", cfg.Notifications.MarkReadForStudent)
	app.Post("/tokens", cfg.Staff.UpdateToken)

	// Staff surface. Login is open; the rest requires a bearer token.
	app.Post("/staff/login", cfg.Staff.Login)
	staffGroup := app.Group("/staff", cfg.AuthMiddleware.Handle)
	staffGroup.Get("/tasks", cfg.Staff.Tasks)
	staffGroup.Get("/tasks/completed/count", cfg.Staff.CompletedCount)
	staffGroup.Post("/tasks/:id/complete", cfg.Reports.Complete)
	staffGroup.Post("/tasks/:id/location", cfg.Reports.UpdateLocation)
	staffGroup.Get("/notifications", cfg.Notifications.List)
	staffGroup.Post("/notifications/:id/read", cfg.Notifications.MarkRead)

	// Admin surface.
	adminGroup := app.Group("/admin")
	adminGroup.Post("/staff", cfg.Admin.CreateStaff)
	adminGroup.Get("/staff", cfg.Admin.ListStaff)
	adminGroup.Post("/staff/:id/active", cfg.Admin.SetStaffActive)
	adminGroup.Post("/reassign", cfg.Admin.Reassign)
	adminGroup.Post("/reassign/bulk", cfg.Admin.BulkReassign)
	adminGroup.Get("/tasks", cfg.Admin.ListTasks)
	adminGroup.Get("/tasks/unassigned", cfg.Admin.UnassignedTasks)
	adminGroup.Get("/queue/status", cfg.Admin.QueueStatus)
	adminGroup.Post("/queue/process", cfg.Admin.ProcessQueue)
	adminGroup.Post("/queue/clear", cfg.Admin.ClearQueue)
	adminGroup.Get("/workload", cfg.Admin.Workload)
	adminGroup.Get("/analytics", cfg.Admin.Analytics)
	adminGroup.Get("/stats", cfg.Admin.SystemStats)
	adminGroup.Post("/broadcast", cfg.Admin.Broadcast)
	adminGroup.Post("/notifications/test", cfg.Admin.TestNotification)
}
