package service

import (
	"context"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
)

// reviewRequestTTL is how long a customer has to act before the request
// expires.
const reviewRequestTTL = 14 * 24 * time.Hour

type ReviewService interface {
	Create(ctx context.Context, tenantID, customerName, contact string) (int64, error)
	Get(ctx context.Context, tenantID string, id int64) (*models.ReviewRequest, error)
	List(ctx context.Context, tenantID string) ([]*models.ReviewRequest, error)
	MarkSent(ctx context.Context, tenantID string, id int64) error
	Complete(ctx context.Context, tenantID string, id int64) error
}

type reviewService struct {
	rr repository.ReviewRequestRepository
}

func NewReviewService(rr repository.ReviewRequestRepository) ReviewService {
	return &reviewService{rr: rr}
}

func (s *reviewService) Create(ctx context.Context, tenantID, customerName, contact string) (int64, error) {
	if customerName == "" {
		return 0, validationf("customer_name is required")
	}
	if contact == "" {
		return 0, validationf("contact is required")
	}

	req := &models.ReviewRequest{
		TenantID:     tenantID,
		CustomerName: customerName,
		Contact:      contact,
		Status:       models.ReviewRequestPending,
		ExpiresAt:    time.Now().UTC().Add(reviewRequestTTL),
	}

	return s.rr.Create(ctx, req)
}

func (s *reviewService) Get(ctx context.Context, tenantID string, id int64) (*models.ReviewRequest, error) {
	req, err := s.rr.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

func (s *reviewService) List(ctx context.Context, tenantID string) ([]*models.ReviewRequest, error) {
	return s.rr.ListByTenant(ctx, tenantID)
}

func (s *reviewService) MarkSent(ctx context.Context, tenantID string, id int64) error {
	req, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if req.Status != models.ReviewRequestPending {
		return validationf("review request %d is %s, not pending", id, req.Status)
	}
	return s.rr.MarkSent(ctx, id, time.Now().UTC())
}

func (s *reviewService) Complete(ctx context.Context, tenantID string, id int64) error {
	req, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if req.Status != models.ReviewRequestSent {
		return validationf("review request %d is %s, not sent", id, req.Status)
	}

	updated, err := s.rr.MarkCompleted(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !updated {
		return ErrConflict
	}
	return nil
}
