package service

import (
	"context"
	"errors"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
)

// instanceTransitions is the full set of legal status moves for a post
// instance. Posted is terminal.
var instanceTransitions = map[string][]string{
	models.InstanceStatusPlanned:       {models.InstanceStatusDraft},
	models.InstanceStatusDraft:         {models.InstanceStatusNeedsApproval, models.InstanceStatusScheduled},
	models.InstanceStatusNeedsApproval: {models.InstanceStatusApproved},
	models.InstanceStatusApproved:      {models.InstanceStatusScheduled},
	models.InstanceStatusScheduled:     {models.InstanceStatusPosted, models.InstanceStatusFailed},
	models.InstanceStatusFailed:        {models.InstanceStatusScheduled},
	models.InstanceStatusPosted:        {},
}

// TransitionAllowed reports whether the status machine permits from -> to.
func TransitionAllowed(from, to string) bool {
	for _, t := range instanceTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type LifecycleService interface {
	BindContent(ctx context.Context, tenantID string, instanceID, contentItemID int64, actor string) error
	SubmitForApproval(ctx context.Context, tenantID string, instanceID int64, actor string) error
	Approve(ctx context.Context, tenantID string, instanceID int64, actor string) error
	Schedule(ctx context.Context, tenantID string, instanceID int64, scheduledFor time.Time, actor string) error
	MarkPosted(ctx context.Context, tenantID string, instanceID int64, postedAt time.Time, postURL, actor string) error
	MarkFailed(ctx context.Context, tenantID string, instanceID int64, errorMessage, actor string) error
	Retry(ctx context.Context, tenantID string, instanceID int64, actor string) error
	Delete(ctx context.Context, tenantID string, instanceID int64) error
	History(ctx context.Context, tenantID string, instanceID int64) ([]*models.InstanceTransition, error)
}

type lifecycleService struct {
	pi repository.PostInstanceRepository
	ci repository.ContentItemRepository
	pj repository.PublishJobRepository
	tr repository.TransitionRepository
}

func NewLifecycleService(
	pi repository.PostInstanceRepository,
	ci repository.ContentItemRepository,
	pj repository.PublishJobRepository,
	tr repository.TransitionRepository) LifecycleService {
	return &lifecycleService{
		pi: pi,
		ci: ci,
		pj: pj,
		tr: tr,
	}
}

// ResolveCaption returns the caption a publish would use: the instance
// override if set, else the bound item's base caption.
func ResolveCaption(inst *models.PostInstance, item *models.ContentItem) (string, error) {
	if inst.CaptionOverride != "" {
		return inst.CaptionOverride, nil
	}
	if item != nil && item.BaseCaption != "" {
		return item.BaseCaption, nil
	}
	return "", validationf("no caption: set an override or give the content item a base caption")
}

func (s *lifecycleService) load(ctx context.Context, tenantID string, instanceID int64) (*models.PostInstance, error) {
	inst, err := s.pi.GetByID(ctx, tenantID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrNotFound
	}
	return inst, nil
}

func (s *lifecycleService) loadItem(ctx context.Context, tenantID string, inst *models.PostInstance) (*models.ContentItem, error) {
	if !inst.ContentItemID.Valid {
		return nil, nil
	}
	return s.ci.GetByID(ctx, tenantID, inst.ContentItemID.Int64)
}

func (s *lifecycleService) record(ctx context.Context, tenantID string, instanceID int64, from, to, actor string) {
	// History is advisory; a failed write must not undo the transition.
	_ = s.tr.Record(ctx, &models.InstanceTransition{
		TenantID:       tenantID,
		PostInstanceID: instanceID,
		FromStatus:     from,
		ToStatus:       to,
		Actor:          actor,
	})
}

// BindContent attaches a content item to a planned slot, moving it to draft.
// Once bound, a slot never reverts to contentless except through content
// deletion.
func (s *lifecycleService) BindContent(ctx context.Context, tenantID string, instanceID, contentItemID int64, actor string) error {
	inst, err := s.load(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}
	if inst.Status != models.InstanceStatusPlanned {
		return validationf("cannot bind content in status %q", inst.Status)
	}

	item, err := s.ci.GetByID(ctx, tenantID, contentItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return validationf("content item %d does not exist", contentItemID)
	}

	err = s.pi.Transition(ctx, tenantID, instanceID, models.InstanceStatusPlanned, models.InstanceStatusDraft,
		func(u *repository.UpdateSet) {
			u.Set("content_item_id", contentItemID)
		})
	if err != nil {
		return err
	}
	s.record(ctx, tenantID, instanceID, models.InstanceStatusPlanned, models.InstanceStatusDraft, actor)
	return nil
}

func (s *lifecycleService) SubmitForApproval(ctx context.Context, tenantID string, instanceID int64, actor string) error {
	inst, err := s.load(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}
	if inst.Status != models.InstanceStatusDraft {
		return validationf("cannot submit for approval from status %q", inst.Status)
	}

	item, err := s.loadItem(ctx, tenantID, inst)
	if err != nil {
		return err
	}
	if _, err := ResolveCaption(inst, item); err != nil {
		return err
	}

	err = s.pi.Transition(ctx, tenantID, instanceID, models.InstanceStatusDraft, models.InstanceStatusNeedsApproval, nil)
	if err != nil {
		return err
	}
	s.record(ctx, tenantID, instanceID, models.InstanceStatusDraft, models.InstanceStatusNeedsApproval, actor)
	return nil
}

func (s *lifecycleService) Approve(ctx context.Context, tenantID string, instanceID int64, actor string) error {
	inst, err := s.load(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}
	if inst.Status != models.InstanceStatusNeedsApproval {
		return validationf("cannot approve from status %q", inst.Status)
	}

	item, err := s.loadItem(ctx, tenantID, inst)
	if err != nil {
		return err
	}
	if item == nil || !item.ReviewerID.Valid {
		return validationf("content item must have a reviewer before approval")
	}

	err = s.pi.Transition(ctx, tenantID, instanceID, models.InstanceStatusNeedsApproval, models.InstanceStatusApproved, nil)
	if err != nil {
		return err
	}
	s.record(ctx, tenantID, instanceID, models.InstanceStatusNeedsApproval, models.InstanceStatusApproved, actor)
	return nil
}

// Schedule moves an approved instance to scheduled. Drafts may schedule
// directly for tenants that skip the approval step.
func (s *lifecycleService) Schedule(ctx context.Context, tenantID string, instanceID int64, scheduledFor time.Time, actor string) error {
	inst, err := s.load(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}
	from := inst.Status
	if from != models.InstanceStatusApproved && from != models.InstanceStatusDraft {
		return validationf("cannot schedule from status %q", from)
	}
	if scheduledFor.IsZero() {
		return validationf("scheduled_for must be set")
	}

	item, err := s.loadItem(ctx, tenantID, inst)
	if err != nil {
		return err
	}
	if _, err := ResolveCaption(inst, item); err != nil {
		return err
	}

	err = s.pi.Transition(ctx, tenantID, instanceID, from, models.InstanceStatusScheduled,
		func(u *repository.UpdateSet) {
			u.Set("scheduled_for", scheduledFor.UTC())
		})
	if err != nil {
		return err
	}
	s.record(ctx, tenantID, instanceID, from, models.InstanceStatusScheduled, actor)
	return nil
}

// MarkPosted is the manual path into posted. It records a completed manual
// publish job so every posted instance carries exactly one completed job.
func (s *lifecycleService) MarkPosted(ctx context.Context, tenantID string, instanceID int64, postedAt time.Time, postURL, actor string) error {
	inst, err := s.load(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}
	if inst.Status != models.InstanceStatusScheduled {
		return validationf("cannot mark posted from status %q", inst.Status)
	}
	if postedAt.IsZero() {
		return validationf("posted_at must be set")
	}

	job := &models.PublishJob{
		TenantID:       tenantID,
		PostInstanceID: instanceID,
		Method:         models.JobMethodManual,
		Status:         models.JobStatusInProgress,
	}
	if _, err := s.pj.Create(ctx, job); err != nil {
		return err
	}

	err = s.pi.Transition(ctx, tenantID, instanceID, models.InstanceStatusScheduled, models.InstanceStatusPosted,
		func(u *repository.UpdateSet) {
			u.Set("posted_at", postedAt.UTC())
			u.Set("post_url", postURL)
			u.Set("posted_manually", true)
			u.Set("publish_job_id", job.ID)
		})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			_ = s.pj.MarkFailed(ctx, job.ID, "instance left scheduled state concurrently")
		}
		return err
	}

	_ = s.pj.MarkCompleted(ctx, job.ID, "")
	s.record(ctx, tenantID, instanceID, models.InstanceStatusScheduled, models.InstanceStatusPosted, actor)
	return nil
}

func (s *lifecycleService) MarkFailed(ctx context.Context, tenantID string, instanceID int64, errorMessage, actor string) error {
	err := s.pi.Transition(ctx, tenantID, instanceID, models.InstanceStatusScheduled, models.InstanceStatusFailed,
		func(u *repository.UpdateSet) {
			u.Set("last_error", errorMessage)
		})
	if err != nil {
		return err
	}
	s.record(ctx, tenantID, instanceID, models.InstanceStatusScheduled, models.InstanceStatusFailed, actor)
	return nil
}

// Retry is the human path out of failed: back to scheduled with the error
// cleared. Previous publish jobs stay untouched.
func (s *lifecycleService) Retry(ctx context.Context, tenantID string, instanceID int64, actor string) error {
	err := s.pi.Transition(ctx, tenantID, instanceID, models.InstanceStatusFailed, models.InstanceStatusScheduled,
		func(u *repository.UpdateSet) {
			u.Set("last_error", "")
		})
	if err != nil {
		return err
	}
	s.record(ctx, tenantID, instanceID, models.InstanceStatusFailed, models.InstanceStatusScheduled, actor)
	return nil
}

func (s *lifecycleService) Delete(ctx context.Context, tenantID string, instanceID int64) error {
	inst, err := s.load(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}
	if models.Terminal(inst.Status) {
		return validationf("posted instances cannot be deleted")
	}
	return s.pi.Remove(ctx, tenantID, instanceID)
}

func (s *lifecycleService) History(ctx context.Context, tenantID string, instanceID int64) ([]*models.InstanceTransition, error) {
	return s.tr.ListByInstance(ctx, tenantID, instanceID)
}
