package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/tradehq/backflow/internal/queue"
	"github.com/tradehq/backflow/internal/service"
	"github.com/tradehq/backflow/internal/transfer"
)

type InstanceHandler struct {
	s           service.InstanceService
	lc          service.LifecycleService
	AsynqClient *asynq.Client
}

func NewInstanceHandler(s service.InstanceService, lc service.LifecycleService, asynqClient *asynq.Client) *InstanceHandler {
	return &InstanceHandler{s: s, lc: lc, AsynqClient: asynqClient}
}

func actor(c *fiber.Ctx) string {
	return fmt.Sprintf("user:%d", GetUserID(c))
}

func (h *InstanceHandler) CreateInstance(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)

	var pc transfer.PostInstanceCreation
	if err := c.BodyParser(&pc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	id, err := h.s.Create(c.Context(), tenantId, &pc)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}

func (h *InstanceHandler) ListInstances(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	if instanceId != 0 {
		inst, err := h.s.Get(c.Context(), tenantId, int64(instanceId))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(inst)
	}

	accountId := c.QueryInt("account_id", 0)
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "from must be RFC3339",
			})
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "to must be RFC3339",
			})
		}

		instances, err := h.s.ListWindow(c.Context(), tenantId, int64(accountId), from, to)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(instances)
	}

	instances, err := h.s.List(c.Context(), tenantId)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(instances)
}

func (h *InstanceHandler) UpdateInstance(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	var pu transfer.PostInstanceUpdate
	if err := c.BodyParser(&pu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	if err := h.s.Update(c.Context(), tenantId, int64(instanceId), &pu); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *InstanceHandler) BindContent(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)
	itemId := c.QueryInt("content_item_id", 0)

	err := h.lc.BindContent(c.Context(), tenantId, int64(instanceId), int64(itemId), actor(c))
	if err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *InstanceHandler) SubmitInstance(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	if err := h.lc.SubmitForApproval(c.Context(), tenantId, int64(instanceId), actor(c)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *InstanceHandler) ApproveInstance(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	if err := h.lc.Approve(c.Context(), tenantId, int64(instanceId), actor(c)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *InstanceHandler) ScheduleInstance(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	at, err := time.Parse(time.RFC3339, c.Query("at"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at must be RFC3339",
		})
	}

	if err := h.lc.Schedule(c.Context(), tenantId, int64(instanceId), at, actor(c)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *InstanceHandler) RetryInstance(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	if err := h.lc.Retry(c.Context(), tenantId, int64(instanceId), actor(c)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *InstanceHandler) RemoveInstance(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	if err := h.lc.Delete(c.Context(), tenantId, int64(instanceId)); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *InstanceHandler) InstanceHistory(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	history, err := h.lc.History(c.Context(), tenantId, int64(instanceId))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(history)
}

// PublishNow pushes a scheduled instance to the worker immediately instead
// of waiting for the sweep.
func (h *InstanceHandler) PublishNow(c *fiber.Ctx) error {
	tenantId := GetTenantID(c)
	instanceId := c.QueryInt("id", 0)

	err := queue.EnqueuePublishNow(h.AsynqClient, queue.PublishNowPayload{
		TenantID:   tenantId,
		InstanceID: int64(instanceId),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling publish",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Publish scheduled",
	})
}
