package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
)

const overdueNotificationKind = "post_overdue"

// OverdueJob raises a notification for every failed instance and every
// manual-posting slot whose time passed without a post. Each instance is
// flagged at most once.
type OverdueJob struct {
	ca repository.ChannelAccountRepository
	pi repository.PostInstanceRepository
	n  repository.NotificationRepository
}

func NewOverdueJob(
	ca repository.ChannelAccountRepository,
	pi repository.PostInstanceRepository,
	n repository.NotificationRepository) *OverdueJob {
	return &OverdueJob{
		ca: ca,
		pi: pi,
		n:  n,
	}
}

func (j *OverdueJob) Run() {
	ctx := context.Background()

	tenants, err := j.ca.ListTenants(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	now := time.Now().UTC()
	for _, tenantID := range tenants {
		if err := j.sweepTenant(ctx, tenantID, now); err != nil {
			slog.Info(err.Error())
		}
	}
}

func (j *OverdueJob) sweepTenant(ctx context.Context, tenantID string, now time.Time) error {
	overdue, err := j.pi.ListOverdue(ctx, tenantID, now)
	if err != nil {
		return err
	}

	for _, inst := range overdue {
		exists, err := j.n.ExistsForRef(ctx, tenantID, overdueNotificationKind, "post_instance", inst.ID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		message := fmt.Sprintf("post instance %d needs attention", inst.ID)
		if inst.Status == models.InstanceStatusFailed {
			message = fmt.Sprintf("post instance %d failed to publish: %s", inst.ID, inst.LastError)
		} else if inst.ScheduledFor.Valid {
			message = fmt.Sprintf("post instance %d was due %s and has not been posted",
				inst.ID, inst.ScheduledFor.Time.Format(time.RFC3339))
		}

		_, err = j.n.Create(ctx, &models.Notification{
			TenantID: tenantID,
			Kind:     overdueNotificationKind,
			Message:  message,
			RefType:  "post_instance",
			RefID:    inst.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
