package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/tradehq/backflow/internal/models"
)

type PublishJobRepository interface {
	Create(ctx context.Context, job *models.PublishJob) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PublishJob, error)
	ListByInstance(ctx context.Context, tenantID string, instanceID int64) ([]*models.PublishJob, error)
	MarkCompleted(ctx context.Context, id int64, responseRef string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
}

type publishJobRepository struct {
	db *sql.DB
}

func NewPublishJobRepository(db *sql.DB) PublishJobRepository {
	return &publishJobRepository{db: db}
}

// Create appends an attempt record. attempt_no is max(existing)+1 for the
// instance, computed in the insert so concurrent dispatchers stay monotone.
func (r *publishJobRepository) Create(ctx context.Context, job *models.PublishJob) (int64, error) {
	query := `
		INSERT INTO publish_jobs (tenant_id, post_instance_id, attempt_no, method, provider, status)
		SELECT $1, $2, COALESCE(MAX(attempt_no), 0) + 1, $3, $4, $5
		FROM publish_jobs WHERE post_instance_id = $2
		RETURNING id, attempt_no
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, job.TenantID, job.PostInstanceID,
		job.Method, job.Provider, job.Status).Scan(&id, &job.AttemptNo)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	job.ID = id
	return id, nil
}

func (r *publishJobRepository) GetByID(ctx context.Context, id int64) (*models.PublishJob, error) {
	query := `SELECT id, tenant_id, post_instance_id, attempt_no, method, provider,
		status, response_ref, error_message, created_at, updated_at
		FROM publish_jobs WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var j models.PublishJob
	err := row.Scan(&j.ID, &j.TenantID, &j.PostInstanceID, &j.AttemptNo, &j.Method,
		&j.Provider, &j.Status, &j.ResponseRef, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &j, nil
}

func (r *publishJobRepository) ListByInstance(ctx context.Context, tenantID string, instanceID int64) ([]*models.PublishJob, error) {
	query := `SELECT id, tenant_id, post_instance_id, attempt_no, method, provider,
		status, response_ref, error_message, created_at, updated_at
		FROM publish_jobs WHERE tenant_id = $1 AND post_instance_id = $2
		ORDER BY attempt_no`
	rows, err := r.db.QueryContext(ctx, query, tenantID, instanceID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.PublishJob
	for rows.Next() {
		var j models.PublishJob
		err := rows.Scan(&j.ID, &j.TenantID, &j.PostInstanceID, &j.AttemptNo, &j.Method,
			&j.Provider, &j.Status, &j.ResponseRef, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *publishJobRepository) MarkCompleted(ctx context.Context, id int64, responseRef string) error {
	query := `UPDATE publish_jobs SET status = 'completed', response_ref = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, responseRef, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *publishJobRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `UPDATE publish_jobs SET status = 'failed', error_message = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
