package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/tradehq/backflow/internal/models"
)

type ReviewRequestRepository interface {
	Create(ctx context.Context, req *models.ReviewRequest) (int64, error)
	GetByID(ctx context.Context, tenantID string, id int64) (*models.ReviewRequest, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.ReviewRequest, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkCompleted(ctx context.Context, tenantID string, id int64) (bool, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type reviewRequestRepository struct {
	db *sql.DB
}

func NewReviewRequestRepository(db *sql.DB) ReviewRequestRepository {
	return &reviewRequestRepository{db: db}
}

func (r *reviewRequestRepository) Create(ctx context.Context, req *models.ReviewRequest) (int64, error) {
	query := `
		INSERT INTO review_requests (tenant_id, customer_name, contact, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, req.TenantID, req.CustomerName,
		req.Contact, req.Status, req.ExpiresAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *reviewRequestRepository) GetByID(ctx context.Context, tenantID string, id int64) (*models.ReviewRequest, error) {
	query := `SELECT id, tenant_id, customer_name, contact, status, expires_at, sent_at, created_at, updated_at
		FROM review_requests WHERE id = $1 AND tenant_id = $2`
	row := r.db.QueryRowContext(ctx, query, id, tenantID)

	var rr models.ReviewRequest
	err := row.Scan(&rr.ID, &rr.TenantID, &rr.CustomerName, &rr.Contact, &rr.Status,
		&rr.ExpiresAt, &rr.SentAt, &rr.CreatedAt, &rr.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &rr, nil
}

func (r *reviewRequestRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.ReviewRequest, error) {
	query := `SELECT id, tenant_id, customer_name, contact, status, expires_at, sent_at, created_at, updated_at
		FROM review_requests WHERE tenant_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.ReviewRequest
	for rows.Next() {
		var rr models.ReviewRequest
		err := rows.Scan(&rr.ID, &rr.TenantID, &rr.CustomerName, &rr.Contact, &rr.Status,
			&rr.ExpiresAt, &rr.SentAt, &rr.CreatedAt, &rr.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		reqs = append(reqs, &rr)
	}
	return reqs, rows.Err()
}

func (r *reviewRequestRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `UPDATE review_requests SET status = 'sent', sent_at = $1, updated_at = $2 WHERE id = $3 AND status = 'pending'`
	_, err := r.db.ExecContext(ctx, query, sentAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkCompleted records that the customer came through. Only sent requests
// qualify; the bool reports whether a row was updated.
func (r *reviewRequestRepository) MarkCompleted(ctx context.Context, tenantID string, id int64) (bool, error) {
	query := `UPDATE review_requests SET status = 'completed', updated_at = $1
		WHERE id = $2 AND tenant_id = $3 AND status = 'sent'`
	res, err := r.db.ExecContext(ctx, query, time.Now(), id, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExpirePending flips pending or sent requests past their expiry to expired.
// Idempotent; safe for multiple scheduler processes.
func (r *reviewRequestRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE review_requests SET status = 'expired', updated_at = $1
		WHERE status IN ('pending', 'sent') AND expires_at < $2`
	res, err := r.db.ExecContext(ctx, query, time.Now(), now)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}
