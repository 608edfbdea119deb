package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tradehq/backflow/internal/service"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userId := GetUserID(c)

	userInfo, err := h.s.GetUserInfo(c.Context(), userId)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(userInfo)
}
