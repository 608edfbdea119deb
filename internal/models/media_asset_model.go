package models

import "time"

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	Intent    string    `db:"intent" json:"intent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContentItemMedia joins a content item to its media assets in display order.
type ContentItemMedia struct {
	ContentItemID int64     `db:"content_item_id" json:"content_item_id"`
	AssetID       int64     `db:"asset_id" json:"asset_id"`
	DisplayOrder  int       `db:"display_order" json:"display_order"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
