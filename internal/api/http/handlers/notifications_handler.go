package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// NotificationsHandler exposes the per-recipient notification log.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /staff/notifications, newest first.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	staffID, ok := auth.StaffIDFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit := parseIntQuery(c, "limit", 50)
	entries, err := h.notifications.History(c.UserContext(), staffID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationResponses(entries)})
}

// MarkRead handles POST /staff/notifications/:id/read. The entry must belong
// to the authenticated staff member.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	staffID, ok := auth.StaffIDFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.notifications.MarkRead(c.UserContext(), staffID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "read"}})
}

// ListForStudent handles GET /students/:id/notifications. Reporters poll this
// for the completion and thank-you entries appended on their tasks.
func (h *NotificationsHandler) ListForStudent(c *fiber.Ctx) error {
	studentID := c.Params("id")
	if studentID == "" {
		return apperrors.NewValidationError("student id required", nil)
	}

	limit := parseIntQuery(c, "limit", 50)
	entries, err := h.notifications.History(c.UserContext(), studentID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationResponses(entries)})
}

// MarkReadForStudent handles POST /students/:id/notifications/:notificationId/read.
func (h *NotificationsHandler) MarkReadForStudent(c *fiber.Ctx) error {
	studentID := c.Params("id")
	if studentID == "" {
		return apperrors.NewValidationError("student id required", nil)
	}

	if err := h.notifications.MarkRead(c.UserContext(), studentID, c.Params("notificationId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "read"}})
}
