package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tradehq/backflow/internal/service"
	"github.com/tradehq/backflow/internal/transfer"
)

type AccountHandler struct {
	s  service.AccountService
	cs service.ConnectService
}

func NewAccountHandler(s service.AccountService, cs service.ConnectService) *AccountHandler {
	return &AccountHandler{s: s, cs: cs}
}

func (h *AccountHandler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.s.Channels(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(channels)
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)

	var ac transfer.ChannelAccountCreation
	if err := c.BodyParser(&ac); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	id, err := h.s.Create(c.Context(), tenantId, &ac)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	accountId := c.QueryInt("id", 0)

	if accountId != 0 {
		acc, err := h.s.Get(c.Context(), tenantId, int64(accountId))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(acc)
	}

	accounts, err := h.s.List(c.Context(), tenantId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) UpdateAccount(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	accountId := c.QueryInt("id", 0)

	var ac transfer.ChannelAccountCreation
	if err := c.BodyParser(&ac); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	if err := h.s.Update(c.Context(), tenantId, int64(accountId), &ac); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) RemoveAccount(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	accountId := c.QueryInt("id", 0)

	if err := h.s.Delete(c.Context(), tenantId, int64(accountId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// ConnectAccount redirects to the channel's OAuth consent page. The
// account ID rides along in state so the callback knows where to land.
func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	accountId := c.QueryInt("id", 0)

	acc, err := h.s.Get(c.Context(), tenantId, int64(accountId))
	if err != nil {
		return fail(c, err)
	}

	authURL, err := h.cs.AuthURL(acc.ChannelKey, c.Query("state"))
	if err != nil {
		return fail(c, err)
	}

	return c.Redirect(authURL)
}

func (h *AccountHandler) ConnectCallbackHandler(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	accountId := c.QueryInt("id", 0)
	code := c.Query("code")

	if err := h.cs.Callback(c.Context(), tenantId, int64(accountId), code); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) DisconnectAccount(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	accountId := c.QueryInt("id", 0)

	if err := h.cs.Disconnect(c.Context(), tenantId, int64(accountId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
