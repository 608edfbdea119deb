package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/tradehq/backflow/internal/models"
)

type ContentItemRepository interface {
	Create(ctx context.Context, item *models.ContentItem) (int64, error)
	GetByID(ctx context.Context, tenantID string, id int64) (*models.ContentItem, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.ContentItem, error)
	Update(ctx context.Context, item *models.ContentItem) error
	UpdateStatus(ctx context.Context, tenantID string, id int64, from, to string) (bool, error)
	AddMedia(ctx context.Context, contentItemID, assetID int64, displayOrder int) error
	ListMediaURLs(ctx context.Context, contentItemID int64) ([]string, error)
	Remove(ctx context.Context, tenantID string, id int64) error
}

type contentItemRepository struct {
	db *sql.DB
}

func NewContentItemRepository(db *sql.DB) ContentItemRepository {
	return &contentItemRepository{db: db}
}

const contentItemColumns = `id, tenant_id, title, base_caption, cta_type, cta_url, tags,
	target_city, content_category, status, notes, owner_id, reviewer_id,
	source_type, source_ref, created_at, updated_at`

func scanContentItem(row interface{ Scan(...interface{}) error }) (*models.ContentItem, error) {
	var ci models.ContentItem
	err := row.Scan(&ci.ID, &ci.TenantID, &ci.Title, &ci.BaseCaption, &ci.CTAType,
		&ci.CTAURL, &ci.Tags, &ci.TargetCity, &ci.ContentCategory, &ci.Status,
		&ci.Notes, &ci.OwnerID, &ci.ReviewerID, &ci.SourceType, &ci.SourceRef,
		&ci.CreatedAt, &ci.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

func (r *contentItemRepository) Create(ctx context.Context, item *models.ContentItem) (int64, error) {
	query := `
		INSERT INTO content_items (tenant_id, title, base_caption, cta_type, cta_url,
			tags, target_city, content_category, status, notes, owner_id,
			reviewer_id, source_type, source_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, item.TenantID, item.Title, item.BaseCaption,
		item.CTAType, item.CTAURL, pq.Array(item.Tags), item.TargetCity,
		item.ContentCategory, item.Status, item.Notes, item.OwnerID,
		item.ReviewerID, item.SourceType, item.SourceRef).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *contentItemRepository) GetByID(ctx context.Context, tenantID string, id int64) (*models.ContentItem, error) {
	query := `SELECT ` + contentItemColumns + ` FROM content_items WHERE id = $1 AND tenant_id = $2`
	item, err := scanContentItem(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return item, nil
}

func (r *contentItemRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.ContentItem, error) {
	query := `SELECT ` + contentItemColumns + ` FROM content_items WHERE tenant_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var items []*models.ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *contentItemRepository) Update(ctx context.Context, item *models.ContentItem) error {
	query := `
		UPDATE content_items
		SET title = $1, base_caption = $2, cta_type = $3, cta_url = $4, tags = $5,
			target_city = $6, content_category = $7, notes = $8, reviewer_id = $9,
			updated_at = $10
		WHERE id = $11 AND tenant_id = $12
	`
	_, err := r.db.ExecContext(ctx, query, item.Title, item.BaseCaption, item.CTAType,
		item.CTAURL, pq.Array(item.Tags), item.TargetCity, item.ContentCategory,
		item.Notes, item.ReviewerID, time.Now(), item.ID, item.TenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateStatus moves the item between lifecycle states with a compare-and-set
// on the current status. Returns false when the row was not in `from`.
func (r *contentItemRepository) UpdateStatus(ctx context.Context, tenantID string, id int64, from, to string) (bool, error) {
	query := `UPDATE content_items SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, tenantID, from)
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

func (r *contentItemRepository) AddMedia(ctx context.Context, contentItemID, assetID int64, displayOrder int) error {
	query := `
		INSERT INTO content_item_media (content_item_id, asset_id, display_order)
		VALUES ($1, $2, $3)
		ON CONFLICT (content_item_id, asset_id) DO UPDATE SET display_order = $3
	`
	_, err := r.db.ExecContext(ctx, query, contentItemID, assetID, displayOrder)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *contentItemRepository) ListMediaURLs(ctx context.Context, contentItemID int64) ([]string, error) {
	query := `
		SELECT ma.file_url
		FROM content_item_media cim
		JOIN media_assets ma ON ma.id = cim.asset_id
		WHERE cim.content_item_id = $1
		ORDER BY cim.display_order
	`
	rows, err := r.db.QueryContext(ctx, query, contentItemID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (r *contentItemRepository) Remove(ctx context.Context, tenantID string, id int64) error {
	query := `DELETE FROM content_items WHERE id = $1 AND tenant_id = $2`
	_, err := r.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
