package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tradehq/backflow/internal/models"
)

func (q *Queue) HandleSendReviewRequestTask(ctx context.Context, task *asynq.Task) error {
	var payload SendReviewRequestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	req, err := q.rr.GetByID(ctx, payload.TenantID, payload.RequestID)
	if err != nil {
		return err
	}
	if req == nil {
		// Deleted since enqueue; nothing to send.
		return nil
	}
	if req.Status != models.ReviewRequestPending {
		return nil
	}

	// Delivery goes out over the tenant's configured contact channel.
	slog.Info("sending review request",
		"request_id", req.ID, "customer", req.CustomerName, "contact", req.Contact)

	return q.rr.MarkSent(ctx, req.ID, time.Now().UTC())
}

func (q *Queue) HandlePublishNowTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishNowPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	due, err := q.hydrate(ctx, payload.TenantID, payload.InstanceID)
	if err != nil {
		return err
	}
	if due == nil {
		return nil
	}

	q.ap.Publish(ctx, due)
	return nil
}

// hydrate assembles the instance, its content, media, and account the way
// the due sweep's join does. Returns nil when the instance is no longer
// publishable.
func (q *Queue) hydrate(ctx context.Context, tenantID string, instanceID int64) (*models.DuePost, error) {
	inst, err := q.pi.GetByID(ctx, tenantID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil || inst.Status != models.InstanceStatusScheduled {
		return nil, nil
	}
	if !inst.ContentItemID.Valid {
		return nil, fmt.Errorf("instance %d has no content bound", instanceID)
	}

	item, err := q.ci.GetByID(ctx, tenantID, inst.ContentItemID.Int64)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("content item %d not found", inst.ContentItemID.Int64)
	}

	mediaURLs, err := q.ci.ListMediaURLs(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	acc, err := q.ca.GetByID(ctx, tenantID, inst.ChannelAccountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("channel account %d not found", inst.ChannelAccountID)
	}

	return &models.DuePost{
		Instance:  *inst,
		Item:      *item,
		MediaURLs: mediaURLs,
		Account:   *acc,
	}, nil
}
