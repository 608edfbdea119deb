package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/transfer"
)

type InstanceService interface {
	Create(ctx context.Context, tenantID string, pc *transfer.PostInstanceCreation) (int64, error)
	Get(ctx context.Context, tenantID string, id int64) (*models.PostInstance, error)
	List(ctx context.Context, tenantID string) ([]*models.PostInstance, error)
	ListWindow(ctx context.Context, tenantID string, accountID int64, from, to time.Time) ([]*models.PostInstance, error)
	Update(ctx context.Context, tenantID string, id int64, pu *transfer.PostInstanceUpdate) error
}

type instanceService struct {
	pi repository.PostInstanceRepository
	ca repository.ChannelAccountRepository
	ci repository.ContentItemRepository
}

func NewInstanceService(
	pi repository.PostInstanceRepository,
	ca repository.ChannelAccountRepository,
	ci repository.ContentItemRepository) InstanceService {
	return &instanceService{
		pi: pi,
		ca: ca,
		ci: ci,
	}
}

func (s *instanceService) Create(ctx context.Context, tenantID string, pc *transfer.PostInstanceCreation) (int64, error) {
	acc, err := s.ca.GetByID(ctx, tenantID, pc.ChannelAccountID)
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, validationf("channel account %d not found", pc.ChannelAccountID)
	}

	inst := &models.PostInstance{
		TenantID:         tenantID,
		ChannelAccountID: pc.ChannelAccountID,
		CaptionOverride:  pc.CaptionOverride,
		Status:           models.InstanceStatusDraft,
		AutopostEnabled:  true,
	}
	if pc.AutopostEnabled != nil {
		inst.AutopostEnabled = *pc.AutopostEnabled
	}

	if pc.ContentItemID > 0 {
		item, err := s.ci.GetByID(ctx, tenantID, pc.ContentItemID)
		if err != nil {
			return 0, err
		}
		if item == nil {
			return 0, validationf("content item %d not found", pc.ContentItemID)
		}
		inst.ContentItemID = sql.NullInt64{Int64: pc.ContentItemID, Valid: true}
	}

	if pc.ScheduledFor != "" {
		at, err := time.Parse(time.RFC3339, pc.ScheduledFor)
		if err != nil {
			return 0, validationf("scheduled_for must be RFC3339: %v", err)
		}
		inst.ScheduledFor = sql.NullTime{Time: at.UTC(), Valid: true}
	}

	return s.pi.Create(ctx, inst)
}

func (s *instanceService) Get(ctx context.Context, tenantID string, id int64) (*models.PostInstance, error) {
	inst, err := s.pi.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrNotFound
	}
	return inst, nil
}

func (s *instanceService) List(ctx context.Context, tenantID string) ([]*models.PostInstance, error) {
	return s.pi.ListByTenant(ctx, tenantID)
}

func (s *instanceService) ListWindow(ctx context.Context, tenantID string, accountID int64, from, to time.Time) ([]*models.PostInstance, error) {
	return s.pi.ListScheduledBetween(ctx, tenantID, accountID, from.UTC(), to.UTC())
}

// Update applies a partial edit. Posted instances are frozen except for
// post_url and screenshot_url, which remain correctable after the fact.
func (s *instanceService) Update(ctx context.Context, tenantID string, id int64, pu *transfer.PostInstanceUpdate) error {
	inst, err := s.pi.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if inst == nil {
		return ErrNotFound
	}

	if models.Terminal(inst.Status) {
		if pu.CaptionOverride != nil || pu.Notes != nil || pu.AutopostEnabled != nil {
			return validationf("a posted instance only accepts post_url and screenshot_url edits")
		}
	}

	if pu.CaptionOverride != nil {
		inst.CaptionOverride = *pu.CaptionOverride
	}
	if pu.Notes != nil {
		inst.Notes = *pu.Notes
	}
	if pu.AutopostEnabled != nil {
		inst.AutopostEnabled = *pu.AutopostEnabled
	}
	if pu.PostURL != nil {
		inst.PostURL = *pu.PostURL
	}
	if pu.ScreenshotURL != nil {
		inst.ScreenshotURL = *pu.ScreenshotURL
	}

	return s.pi.UpdateEditable(ctx, inst)
}
