package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/tradehq/backflow/internal/queue"
	"github.com/tradehq/backflow/internal/service"
)

type ReviewHandler struct {
	s           service.ReviewService
	AsynqClient *asynq.Client
}

func NewReviewHandler(s service.ReviewService, asynqClient *asynq.Client) *ReviewHandler {
	return &ReviewHandler{s: s, AsynqClient: asynqClient}
}

// CreateRequest records the outreach and hands delivery to the worker.
func (h *ReviewHandler) CreateRequest(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)

	var body struct {
		CustomerName string `json:"customer_name"`
		Contact      string `json:"contact"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	id, err := h.s.Create(c.Context(), tenantId, body.CustomerName, body.Contact)
	if err != nil {
		return fail(c, err)
	}

	err = queue.EnqueueReviewRequest(h.AsynqClient, queue.SendReviewRequestPayload{
		TenantID:  tenantId,
		RequestID: id,
	}, 0)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"error": "Error scheduling review request",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}

func (h *ReviewHandler) ListRequests(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	requestId := c.QueryInt("id", 0)

	if requestId != 0 {
		req, err := h.s.Get(c.Context(), tenantId, int64(requestId))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(req)
	}

	reqs, err := h.s.List(c.Context(), tenantId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(reqs)
}

func (h *ReviewHandler) CompleteRequest(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	requestId := c.QueryInt("id", 0)

	if err := h.s.Complete(c.Context(), tenantId, int64(requestId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
