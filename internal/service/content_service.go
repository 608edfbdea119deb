package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/transfer"
)

type ContentService interface {
	Create(ctx context.Context, tenantID string, cc *transfer.ContentItemCreation, ownerID int64) (int64, error)
	Get(ctx context.Context, tenantID string, id int64) (*models.ContentItem, error)
	List(ctx context.Context, tenantID string) ([]*models.ContentItem, error)
	Update(ctx context.Context, tenantID string, id int64, cc *transfer.ContentItemCreation) error
	SubmitForApproval(ctx context.Context, tenantID string, id int64) error
	Recall(ctx context.Context, tenantID string, id int64) error
	Delete(ctx context.Context, tenantID string, id int64) error
	AttachMedia(ctx context.Context, tenantID string, id, assetID int64, displayOrder int) error
	ConvertReview(ctx context.Context, tenantID string, reviewID int64, ownerID int64) (int64, error)
}

type contentService struct {
	ci repository.ContentItemRepository
	pi repository.PostInstanceRepository
	ma repository.MediaAssetRepository
	rr repository.ReviewRequestRepository
}

func NewContentService(
	ci repository.ContentItemRepository,
	pi repository.PostInstanceRepository,
	ma repository.MediaAssetRepository,
	rr repository.ReviewRequestRepository) ContentService {
	return &contentService{
		ci: ci,
		pi: pi,
		ma: ma,
		rr: rr,
	}
}

func (s *contentService) Create(ctx context.Context, tenantID string, cc *transfer.ContentItemCreation, ownerID int64) (int64, error) {
	if cc.Title == "" {
		return 0, validationf("title cannot be empty")
	}
	if cc.ContentCategory != "" {
		if _, ok := models.CanonicalCategory(cc.ContentCategory); !ok {
			return 0, validationf("unknown content category %q", cc.ContentCategory)
		}
	}

	item := &models.ContentItem{
		TenantID:        tenantID,
		Title:           cc.Title,
		BaseCaption:     cc.BaseCaption,
		CTAType:         cc.CTAType,
		CTAURL:          cc.CTAURL,
		Tags:            cc.Tags,
		TargetCity:      cc.TargetCity,
		ContentCategory: cc.ContentCategory,
		Status:          models.ItemStatusIdea,
		Notes:           cc.Notes,
		OwnerID:         sql.NullInt64{Int64: ownerID, Valid: ownerID != 0},
		SourceType:      cc.SourceType,
		SourceRef:       cc.SourceRef,
	}
	if cc.ReviewerID != 0 {
		item.ReviewerID = sql.NullInt64{Int64: cc.ReviewerID, Valid: true}
	}
	if cc.BaseCaption != "" {
		item.Status = models.ItemStatusDraft
	}

	return s.ci.Create(ctx, item)
}

func (s *contentService) Get(ctx context.Context, tenantID string, id int64) (*models.ContentItem, error) {
	item, err := s.ci.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *contentService) List(ctx context.Context, tenantID string) ([]*models.ContentItem, error) {
	return s.ci.ListByTenant(ctx, tenantID)
}

func (s *contentService) Update(ctx context.Context, tenantID string, id int64, cc *transfer.ContentItemCreation) error {
	item, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	item.Title = cc.Title
	item.BaseCaption = cc.BaseCaption
	item.CTAType = cc.CTAType
	item.CTAURL = cc.CTAURL
	item.Tags = cc.Tags
	item.TargetCity = cc.TargetCity
	item.ContentCategory = cc.ContentCategory
	item.Notes = cc.Notes
	if cc.ReviewerID != 0 {
		item.ReviewerID = sql.NullInt64{Int64: cc.ReviewerID, Valid: true}
	}

	return s.ci.Update(ctx, item)
}

// SubmitForApproval moves an item from draft to needs_approval. Requires a
// base caption or working notes, so reviewers have something to look at.
func (s *contentService) SubmitForApproval(ctx context.Context, tenantID string, id int64) error {
	item, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if item.Status != models.ItemStatusDraft {
		return validationf("cannot submit from status %q", item.Status)
	}
	if item.BaseCaption == "" && item.Notes == "" {
		return validationf("a caption or notes are required before review")
	}

	ok, err := s.ci.UpdateStatus(ctx, tenantID, id, models.ItemStatusDraft, models.ItemStatusNeedsApproval)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// Recall pulls an item back to draft from any state for rework.
func (s *contentService) Recall(ctx context.Context, tenantID string, id int64) error {
	item, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if item.Status == models.ItemStatusDraft {
		return nil
	}

	ok, err := s.ci.UpdateStatus(ctx, tenantID, id, item.Status, models.ItemStatusDraft)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// Delete removes the item and detaches it from its post instances. Bound
// instances not yet posted are demoted to planned; posted ones keep their
// history through post_url.
func (s *contentService) Delete(ctx context.Context, tenantID string, id int64) error {
	detached, err := s.pi.DetachContent(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if detached > 0 {
		slog.Info("detached post instances from deleted content item",
			"content_item_id", id, "count", detached)
	}
	return s.ci.Remove(ctx, tenantID, id)
}

func (s *contentService) AttachMedia(ctx context.Context, tenantID string, id, assetID int64, displayOrder int) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	asset, err := s.ma.GetByID(ctx, tenantID, assetID)
	if err != nil {
		return err
	}
	if asset == nil {
		return validationf("media asset %d does not exist", assetID)
	}
	return s.ci.AddMedia(ctx, id, assetID, displayOrder)
}

// ConvertReview turns a completed review request into a reusable content
// item with source lineage back to the review.
func (s *contentService) ConvertReview(ctx context.Context, tenantID string, reviewID int64, ownerID int64) (int64, error) {
	review, err := s.rr.GetByID(ctx, tenantID, reviewID)
	if err != nil {
		return 0, err
	}
	if review == nil {
		return 0, ErrNotFound
	}
	if review.Status != models.ReviewRequestCompleted {
		return 0, validationf("only completed reviews can become content")
	}

	name := strings.TrimSpace(review.CustomerName)
	if name == "" {
		name = "a happy customer"
	}

	item := &models.ContentItem{
		TenantID:        tenantID,
		Title:           fmt.Sprintf("Review from %s", name),
		ContentCategory: models.CategoryAuthority,
		Status:          models.ItemStatusIdea,
		OwnerID:         sql.NullInt64{Int64: ownerID, Valid: ownerID != 0},
		SourceType:      "review",
		SourceRef:       fmt.Sprintf("%d", reviewID),
	}
	return s.ci.Create(ctx, item)
}
