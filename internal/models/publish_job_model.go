package models

import "time"

// PublishJob is one attempt at dispatching a PostInstance to a platform.
// Rows are append-only; attempt_no is monotone per instance.
type PublishJob struct {
	ID             int64     `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"tenant_id"`
	PostInstanceID int64     `db:"post_instance_id" json:"post_instance_id"`
	AttemptNo      int       `db:"attempt_no" json:"attempt_no"`
	Method         string    `db:"method" json:"method"`
	Provider       string    `db:"provider" json:"provider"`
	Status         string    `db:"status" json:"status"`
	ResponseRef    string    `db:"response_ref" json:"response_ref"`
	ErrorMessage   string    `db:"error_message" json:"error_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	JobMethodAPI    = "api"
	JobMethodManual = "manual"

	JobStatusQueued     = "queued"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
