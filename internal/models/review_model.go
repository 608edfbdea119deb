package models

import (
	"database/sql"
	"time"
)

// ReviewRequest tracks an outbound ask for a customer review. Requests left
// pending past their expiry are flipped to expired by the scheduler.
type ReviewRequest struct {
	ID           int64        `db:"id" json:"id"`
	TenantID     string       `db:"tenant_id" json:"tenant_id"`
	CustomerName string       `db:"customer_name" json:"customer_name"`
	Contact      string       `db:"contact" json:"contact"`
	Status       string       `db:"status" json:"status"`
	ExpiresAt    time.Time    `db:"expires_at" json:"expires_at"`
	SentAt       sql.NullTime `db:"sent_at" json:"sent_at"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

const (
	ReviewRequestPending   = "pending"
	ReviewRequestSent      = "sent"
	ReviewRequestCompleted = "completed"
	ReviewRequestExpired   = "expired"
)

// Notification is an actionable item surfaced by the overdue-item job.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Kind      string    `db:"kind" json:"kind"`
	Message   string    `db:"message" json:"message"`
	Assignee  string    `db:"assignee" json:"assignee"`
	RefType   string    `db:"ref_type" json:"ref_type"`
	RefID     int64     `db:"ref_id" json:"ref_id"`
	ReadAt    sql.NullTime `db:"read_at" json:"read_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
