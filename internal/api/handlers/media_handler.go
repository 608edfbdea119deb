package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/tradehq/backflow/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	intent := c.FormValue("intent")

	ids := make([]int64, 0, len(files))
	for _, file := range files {
		id, err := h.s.Upload(c.Context(), tenantId, intent, file)
		if err != nil {
			return fail(c, err)
		}
		ids = append(ids, id)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ids": ids})
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	assetId := c.QueryInt("id", 0)

	if assetId != 0 {
		asset, err := h.s.Get(c.Context(), tenantId, int64(assetId))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(asset)
	}

	assets, err := h.s.List(c.Context(), tenantId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}

func (h *MediaHandler) RemoveMedia(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	assetId := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), tenantId, int64(assetId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
