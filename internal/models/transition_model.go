package models

import "time"

// InstanceTransition records one status change of a post instance.
// Append-only.
type InstanceTransition struct {
	ID             int64     `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"tenant_id"`
	PostInstanceID int64     `db:"post_instance_id" json:"post_instance_id"`
	FromStatus     string    `db:"from_status" json:"from_status"`
	ToStatus       string    `db:"to_status" json:"to_status"`
	Actor          string    `db:"actor" json:"actor"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
