package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/tradehq/backflow/internal/models"
)

type TransitionRepository interface {
	Record(ctx context.Context, t *models.InstanceTransition) error
	ListByInstance(ctx context.Context, tenantID string, instanceID int64) ([]*models.InstanceTransition, error)
}

type transitionRepository struct {
	db *sql.DB
}

func NewTransitionRepository(db *sql.DB) TransitionRepository {
	return &transitionRepository{db: db}
}

func (r *transitionRepository) Record(ctx context.Context, t *models.InstanceTransition) error {
	query := `
		INSERT INTO instance_transitions (tenant_id, post_instance_id, from_status, to_status, actor)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, t.TenantID, t.PostInstanceID, t.FromStatus, t.ToStatus, t.Actor)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *transitionRepository) ListByInstance(ctx context.Context, tenantID string, instanceID int64) ([]*models.InstanceTransition, error) {
	query := `SELECT id, tenant_id, post_instance_id, from_status, to_status, actor, created_at
		FROM instance_transitions WHERE tenant_id = $1 AND post_instance_id = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, tenantID, instanceID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var transitions []*models.InstanceTransition
	for rows.Next() {
		var t models.InstanceTransition
		err := rows.Scan(&t.ID, &t.TenantID, &t.PostInstanceID, &t.FromStatus, &t.ToStatus, &t.Actor, &t.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		transitions = append(transitions, &t)
	}
	return transitions, rows.Err()
}
