package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/publisher"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/service"
)

// Autoposter sweeps scheduled instances whose time has come and pushes them
// through the channel publishers. Every attempt leaves a publish job row
// whether or not the push succeeded.
type Autoposter struct {
	cfg      *config.Config
	pi       repository.PostInstanceRepository
	pj       repository.PublishJobRepository
	ch       repository.ChannelRepository
	registry *publisher.Registry
	now      func() time.Time
}

func NewAutoposter(
	cfg *config.Config,
	pi repository.PostInstanceRepository,
	pj repository.PublishJobRepository,
	ch repository.ChannelRepository,
	registry *publisher.Registry) *Autoposter {
	return &Autoposter{
		cfg:      cfg,
		pi:       pi,
		pj:       pj,
		ch:       ch,
		registry: registry,
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (a *Autoposter) Run(ctx context.Context) {
	interval := time.Duration(a.cfg.CheckIntervalSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// RunOnce dispatches everything currently due. Individual failures are
// recorded on the instance and never abort the sweep.
func (a *Autoposter) RunOnce(ctx context.Context) {
	due, err := a.pi.ListDue(ctx, a.now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)

	for _, d := range due {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(d *models.DuePost) {
			defer wg.Done()
			defer func() { <-semaphore }()
			a.publishOne(ctx, d)
		}(d)
	}

	wg.Wait()
}

// Publish pushes a single hydrated instance through its channel publisher.
// Used by the queue worker for on-demand publishes.
func (a *Autoposter) Publish(ctx context.Context, due *models.DuePost) {
	a.publishOne(ctx, due)
}

func (a *Autoposter) publishOne(ctx context.Context, due *models.DuePost) {
	inst := &due.Instance

	channel, err := a.ch.GetByKey(ctx, due.Account.ChannelKey)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if channel == nil || !channel.SupportsAutopost {
		// Left for manual posting; the overdue sweep will surface it.
		return
	}

	// The job row goes in before any checks that can fail the attempt, so
	// every failure is auditable against a job.
	job := &models.PublishJob{
		TenantID:       inst.TenantID,
		PostInstanceID: inst.ID,
		Method:         models.JobMethodAPI,
		Provider:       due.Account.ChannelKey,
		Status:         models.JobStatusInProgress,
	}
	jobID, err := a.pj.Create(ctx, job)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	caption, err := service.ResolveCaption(inst, &due.Item)
	if err != nil {
		a.failAttempt(ctx, inst, jobID, err.Error())
		return
	}

	pub := a.registry.Resolve(due.Account.ChannelKey)
	if !pub.IsConnected(&due.Account) {
		a.failAttempt(ctx, inst, jobID, "channel account is not connected")
		return
	}

	// The publish call must not die with the sweep's context; once the
	// request is in flight we want its outcome recorded.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
		time.Duration(a.cfg.PublishTimeoutSecs)*time.Second)
	defer cancel()

	result, err := pub.Publish(pubCtx, caption, due.MediaURLs, &due.Account)
	if err != nil {
		a.failAttempt(ctx, inst, jobID, err.Error())
		return
	}

	if err := a.pj.MarkCompleted(ctx, jobID, result.ID); err != nil {
		slog.Info(err.Error())
	}

	postedAt := a.now().UTC()
	err = a.pi.Transition(ctx, inst.TenantID, inst.ID,
		models.InstanceStatusScheduled, models.InstanceStatusPosted,
		func(u *repository.UpdateSet) {
			u.Set("posted_at", postedAt)
			u.Set("post_url", result.URL)
			u.Set("posted_manually", false)
			u.Set("last_error", "")
			u.Set("publish_job_id", jobID)
		})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			// The post went out but someone moved the instance while we
			// were publishing. Keep the completed job row as the record
			// and flag the mismatch for reconciliation.
			slog.Warn("published but instance left scheduled state concurrently",
				"instance_id", inst.ID, "job_id", jobID, "post_url", result.URL)
			return
		}
		slog.Info(err.Error())
	}
}

// failAttempt records the failure on both the job row and the instance.
func (a *Autoposter) failAttempt(ctx context.Context, inst *models.PostInstance, jobID int64, reason string) {
	if err := a.pj.MarkFailed(ctx, jobID, reason); err != nil {
		slog.Info(err.Error())
	}
	err := a.pi.Transition(ctx, inst.TenantID, inst.ID,
		models.InstanceStatusScheduled, models.InstanceStatusFailed,
		func(u *repository.UpdateSet) {
			u.Set("last_error", reason)
			u.Set("publish_job_id", jobID)
		})
	if err != nil && !errors.Is(err, repository.ErrStatusConflict) {
		slog.Info(err.Error())
	}
}
