package service

import (
	"context"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
)

type NotificationService interface {
	ListUnread(ctx context.Context, tenantID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, tenantID string, id int64) error
}

type notificationService struct {
	n repository.NotificationRepository
}

func NewNotificationService(n repository.NotificationRepository) NotificationService {
	return &notificationService{n: n}
}

func (s *notificationService) ListUnread(ctx context.Context, tenantID string) ([]*models.Notification, error) {
	return s.n.ListUnread(ctx, tenantID)
}

func (s *notificationService) MarkRead(ctx context.Context, tenantID string, id int64) error {
	return s.n.MarkRead(ctx, tenantID, id)
}
