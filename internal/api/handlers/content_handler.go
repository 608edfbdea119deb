package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tradehq/backflow/internal/service"
	"github.com/tradehq/backflow/internal/transfer"
)

type ContentHandler struct {
	s service.ContentService
}

func NewContentHandler(s service.ContentService) *ContentHandler {
	return &ContentHandler{s: s}
}

func (h *ContentHandler) CreateItem(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	userId := GetUserID(c)

	var cc transfer.ContentItemCreation
	if err := c.BodyParser(&cc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	id, err := h.s.Create(c.Context(), tenantId, &cc, userId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}

func (h *ContentHandler) ListItems(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	itemId := c.QueryInt("id", 0)

	if itemId != 0 {
		item, err := h.s.Get(c.Context(), tenantId, int64(itemId))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(item)
	}

	items, err := h.s.List(c.Context(), tenantId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(items)
}

func (h *ContentHandler) UpdateItem(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	itemId := c.QueryInt("id", 0)

	var cc transfer.ContentItemCreation
	if err := c.BodyParser(&cc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	if err := h.s.Update(c.Context(), tenantId, int64(itemId), &cc); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ContentHandler) SubmitItem(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	itemId := c.QueryInt("id", 0)

	if err := h.s.SubmitForApproval(c.Context(), tenantId, int64(itemId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ContentHandler) RecallItem(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	itemId := c.QueryInt("id", 0)

	if err := h.s.Recall(c.Context(), tenantId, int64(itemId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ContentHandler) RemoveItem(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	itemId := c.QueryInt("id", 0)

	if err := h.s.Delete(c.Context(), tenantId, int64(itemId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ContentHandler) AttachMedia(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	itemId := c.QueryInt("id", 0)
	assetId := c.QueryInt("asset_id", 0)
	displayOrder := c.QueryInt("display_order", 0)

	if err := h.s.AttachMedia(c.Context(), tenantId, int64(itemId), int64(assetId), displayOrder); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// ConvertReview turns a completed review request into an authority-bucket
// content item ready for drafting.
func (h *ContentHandler) ConvertReview(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	userId := GetUserID(c)
	reviewId := c.QueryInt("review_id", 0)

	id, err := h.s.ConvertReview(c.Context(), tenantId, int64(reviewId), userId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}
