package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/tradehq/backflow/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, asset *models.MediaAsset) (int64, error)
	GetByID(ctx context.Context, tenantID string, id int64) (*models.MediaAsset, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, tenantID string, id int64) error
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, asset *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO media_assets (tenant_id, file_name, file_type, file_size, file_url, intent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, asset.TenantID, asset.FileName,
		asset.FileType, asset.FileSize, asset.FileURL, asset.Intent).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, tenantID string, id int64) (*models.MediaAsset, error) {
	query := `SELECT id, tenant_id, file_name, file_type, file_size, file_url, intent, created_at
		FROM media_assets WHERE id = $1 AND tenant_id = $2`
	row := r.db.QueryRowContext(ctx, query, id, tenantID)

	var a models.MediaAsset
	err := row.Scan(&a.ID, &a.TenantID, &a.FileName, &a.FileType, &a.FileSize, &a.FileURL, &a.Intent, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &a, nil
}

func (r *mediaAssetRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.MediaAsset, error) {
	query := `SELECT id, tenant_id, file_name, file_type, file_size, file_url, intent, created_at
		FROM media_assets WHERE tenant_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		var a models.MediaAsset
		err := rows.Scan(&a.ID, &a.TenantID, &a.FileName, &a.FileType, &a.FileSize, &a.FileURL, &a.Intent, &a.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *mediaAssetRepository) Remove(ctx context.Context, tenantID string, id int64) error {
	query := `DELETE FROM media_assets WHERE id = $1 AND tenant_id = $2`
	_, err := r.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
