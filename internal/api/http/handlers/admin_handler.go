package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// AdminHandler exposes the operational surface: staff provisioning,
// reassignment, queue maintenance and reporting.
type AdminHandler struct {
	staff         *service.StaffService
	tasks         *service.TaskService
	queue         *service.QueueService
	notifications *service.NotificationService
	metrics       *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(staff *service.StaffService, tasks *service.TaskService, queue *service.QueueService, notifications *service.NotificationService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{staff: staff, tasks: tasks, queue: queue, notifications: notifications, metrics: metrics}
}

// CreateStaff handles POST /admin/staff.
func (h *AdminHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	staff, err := h.staff.Create(c.UserContext(), req.StaffID, req.Name, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// ListStaff handles GET /admin/staff.
func (h *AdminHandler) ListStaff(c *fiber.Ctx) error {
	list, err := h.staff.List(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewStaffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SetStaffActive handles POST /admin/staff/:id/active.
func (h *AdminHandler) SetStaffActive(c *fiber.Ctx) error {
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	staff, err := h.staff.SetActive(c.UserContext(), c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// Reassign handles POST /admin/reassign.
func (h *AdminHandler) Reassign(c *fiber.Ctx) error {
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TaskID == "" || req.StaffID == "" {
		return apperrors.NewValidationError("task_id and staff_id required", nil)
	}

	task, err := h.tasks.Reassign(c.UserContext(), req.TaskID, req.StaffID, "admin")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// BulkReassign handles POST /admin/reassign/bulk. Partial failure is reported
// per task, not as a request error.
func (h *AdminHandler) BulkReassign(c *fiber.Ctx) error {
	var req dto.BulkReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.TaskIDs) == 0 || req.StaffID == "" {
		return apperrors.NewValidationError("task_ids and staff_id required", nil)
	}

	result, err := h.tasks.BulkReassign(c.UserContext(), req.TaskIDs, req.StaffID, "admin")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkReassignResponse{
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}})
}

// ListTasks handles GET /admin/tasks.
func (h *AdminHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponses(tasks)})
}

// UnassignedTasks handles GET /admin/tasks/unassigned.
func (h *AdminHandler) UnassignedTasks(c *fiber.Ctx) error {
	unassigned, err := h.queue.FindUnassigned(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": unassigned})
}

// QueueStatus handles GET /admin/queue/status.
func (h *AdminHandler) QueueStatus(c *fiber.Ctx) error {
	status, err := h.queue.Status(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": status})
}

// ProcessQueue handles POST /admin/queue/process.
func (h *AdminHandler) ProcessQueue(c *fiber.Ctx) error {
	result, err := h.queue.DrainQueue(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// ClearQueue handles POST /admin/queue/clear.
func (h *AdminHandler) ClearQueue(c *fiber.Ctx) error {
	result, err := h.queue.ClearQueue(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Workload handles GET /admin/workload.
func (h *AdminHandler) Workload(c *fiber.Ctx) error {
	report, err := h.staff.Workload(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Analytics handles GET /admin/analytics.
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	analytics, err := h.tasks.GetAnalytics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": analytics})
}

// SystemStats handles GET /admin/stats.
func (h *AdminHandler) SystemStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// Broadcast handles POST /admin/broadcast.
func (h *AdminHandler) Broadcast(c *fiber.Ctx) error {
	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Body == "" {
		return apperrors.NewValidationError("title and body required", nil)
	}

	count, err := h.notifications.Broadcast(c.UserContext(), req.Target, req.UserID, req.Title, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"recipients": count}})
}

// TestNotification handles POST /admin/notifications/test.
func (h *AdminHandler) TestNotification(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}
	if err := h.notifications.SendTest(c.UserContext(), userID); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "queued"}})
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}
