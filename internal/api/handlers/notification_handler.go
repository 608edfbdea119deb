package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tradehq/backflow/internal/service"
)

type NotificationHandler struct {
	s service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{s: s}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)

	notifications, err := h.s.ListUnread(c.Context(), tenantId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(notifications)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	notificationId := c.QueryInt("id", 0)

	if err := h.s.MarkRead(c.Context(), tenantId, int64(notificationId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
