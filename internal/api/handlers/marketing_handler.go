package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/service"
)

type MarketingHandler struct {
	cfg *config.Config
	ts  service.TopoffService
	ms  service.MixService
	lc  service.LifecycleService
	as  service.AccountService
}

func NewMarketingHandler(
	cfg *config.Config,
	ts service.TopoffService,
	ms service.MixService,
	lc service.LifecycleService,
	as service.AccountService) *MarketingHandler {
	return &MarketingHandler{
		cfg: cfg,
		ts:  ts,
		ms:  ms,
		lc:  lc,
		as:  as,
	}
}

// Topoff runs the slot top-off sweep for the caller's tenant and reports
// how many slots were created and skipped.
func (h *MarketingHandler) Topoff(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	horizonDays := c.QueryInt("horizon_days", h.cfg.TopoffHorizonDays)

	result, err := h.ts.Topoff(c.Context(), tenantId, horizonDays)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *MarketingHandler) MixSummary(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	weeks := c.QueryInt("weeks", 4)

	summaries, err := h.ms.SummarizeMix(c.Context(), tenantId, weeks)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(summaries)
}

// MarkPosted records a manual post against a scheduled instance.
func (h *MarketingHandler) MarkPosted(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	var body struct {
		PostedAt string `json:"posted_at"`
		PostURL  string `json:"post_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	postedAt := time.Now().UTC()
	if body.PostedAt != "" {
		at, err := time.Parse(time.RFC3339, body.PostedAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "posted_at must be RFC3339",
			})
		}
		postedAt = at.UTC()
	}

	err := h.lc.MarkPosted(c.Context(), tenantId, int64(instanceId), postedAt, body.PostURL, actor(c))
	if err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *MarketingHandler) MarkFailed(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	err := h.lc.MarkFailed(c.Context(), tenantId, int64(instanceId), body.Reason, actor(c))
	if err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// SeedChannels is an install-time endpoint gated by the seed secret rather
// than a user session. An unset secret leaves the endpoint open, for fresh
// installs that have not configured one yet.
func (h *MarketingHandler) SeedChannels(c *fiber.Ctx) error {
	if h.cfg.MarketingSeedSecret != "" && c.Query("secret") != h.cfg.MarketingSeedSecret {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	n, err := h.as.SeedChannels(c.Context())
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"seeded": n})
}
