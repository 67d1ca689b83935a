package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// StaffHandler exposes the staff and student self-service endpoints.
type StaffHandler struct {
	staff    *service.StaffService
	students *service.StudentService
	tasks    *service.TaskService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staff *service.StaffService, students *service.StudentService, tasks *service.TaskService) *StaffHandler {
	return &StaffHandler{staff: staff, students: students, tasks: tasks}
}

// Login handles POST /staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StaffID == "" || req.Password == "" {
		return apperrors.NewValidationError("staff_id and password required", nil)
	}

	result, err := h.staff.Login(c.UserContext(), req.StaffID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StaffLoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Staff:     dto.NewStaffResponse(result.Staff),
	}})
}

// Tasks handles GET /staff/tasks. An optional status query filters the list.
func (h *StaffHandler) Tasks(c *fiber.Ctx) error {
	staffID, ok := auth.StaffIDFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var status *domain.TaskStatus
	if val := c.Query("status"); val != "" {
		parsed := domain.TaskStatus(val)
		if parsed != domain.TaskStatusPending && parsed != domain.TaskStatusCompleted {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": val})
		}
		status = &parsed
	}

	tasks, err := h.tasks.ListForStaff(c.UserContext(), staffID, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponses(tasks)})
}

// CompletedCount handles GET /staff/tasks/completed/count.
func (h *StaffHandler) CompletedCount(c *fiber.Ctx) error {
	staffID, ok := auth.StaffIDFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	count, err := h.tasks.CompletedCount(c.UserContext(), staffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"completed": count}})
}

// RegisterStudent handles POST /students/register.
func (h *StaffHandler) RegisterStudent(c *fiber.Ctx) error {
	var req dto.RegisterStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StudentID == "" {
		return apperrors.NewValidationError("student_id required", nil)
	}

	student, err := h.students.Register(c.UserContext(), req.StudentID, req.Name, req.RegisterNumber)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStudentResponse(student)})
}

// UpdateToken handles POST /tokens. Students and staff share the endpoint.
func (h *StaffHandler) UpdateToken(c *fiber.Ctx) error {
	var req dto.UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.Token == "" {
		return apperrors.NewValidationError("user_id and token required", nil)
	}

	var err error
	switch req.UserType {
	case "staff":
		err = h.staff.UpdateNotificationToken(c.UserContext(), req.UserID, req.Token)
	case "student", "":
		err = h.students.UpdateNotificationToken(c.UserContext(), req.UserID, req.Token)
	default:
		return apperrors.NewValidationError("unknown user_type", map[string]any{"user_type": req.UserType})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "token_updated"}})
}
