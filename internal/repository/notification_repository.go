package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/tradehq/backflow/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (int64, error)
	ListUnread(ctx context.Context, tenantID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, tenantID string, id int64) error
	ExistsForRef(ctx context.Context, tenantID, kind, refType string, refID int64) (bool, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) (int64, error) {
	query := `
		INSERT INTO notifications (tenant_id, kind, message, assignee, ref_type, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, n.TenantID, n.Kind, n.Message,
		n.Assignee, n.RefType, n.RefID).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, tenantID string) ([]*models.Notification, error) {
	query := `SELECT id, tenant_id, kind, message, assignee, ref_type, ref_id, read_at, created_at
		FROM notifications WHERE tenant_id = $1 AND read_at IS NULL ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.TenantID, &n.Kind, &n.Message, &n.Assignee,
			&n.RefType, &n.RefID, &n.ReadAt, &n.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, tenantID string, id int64) error {
	query := `UPDATE notifications SET read_at = $1 WHERE id = $2 AND tenant_id = $3`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ExistsForRef keeps the hourly overdue job from re-notifying the same item.
func (r *notificationRepository) ExistsForRef(ctx context.Context, tenantID, kind, refType string, refID int64) (bool, error) {
	query := `SELECT 1 FROM notifications WHERE tenant_id = $1 AND kind = $2 AND ref_type = $3 AND ref_id = $4 AND read_at IS NULL`

	var result int
	err := r.db.QueryRowContext(ctx, query, tenantID, kind, refType, refID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}
