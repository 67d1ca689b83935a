package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// ReportsHandler exposes the maintenance report lifecycle endpoints.
type ReportsHandler struct {
	tasks *service.TaskService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(tasks *service.TaskService) *ReportsHandler {
	return &ReportsHandler{tasks: tasks}
}

// Create handles POST /reports.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	task, err := h.tasks.Create(c.UserContext(), service.TaskCreateInput{
		ReporterID:   req.ReporterID,
		ReporterName: req.ReporterName,
		Caption:      req.Caption,
		Location:     req.Location,
		EvidenceRef:  req.EvidenceRef,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// Get handles GET /tasks/:id.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	task, err := h.tasks.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// History handles GET /reports/history/:reporterId.
func (h *ReportsHandler) History(c *fiber.Ctx) error {
	tasks, err := h.tasks.HistoryForReporter(c.UserContext(), c.Params("reporterId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponses(tasks)})
}

// Complete handles POST /staff/tasks/:id/complete.
func (h *ReportsHandler) Complete(c *fiber.Ctx) error {
	staffID, ok := auth.StaffIDFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CompleteTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	task, err := h.tasks.Complete(c.UserContext(), c.Params("id"), req.EvidenceRef, staffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// UpdateLocation handles POST /staff/tasks/:id/location.
func (h *ReportsHandler) UpdateLocation(c *fiber.Ctx) error {
	var req dto.UpdateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Location == "" {
		return apperrors.NewValidationError("location required", nil)
	}

	task, err := h.tasks.UpdateLocation(c.UserContext(), c.Params("id"), req.Location)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}
