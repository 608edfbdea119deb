package models

import (
	"database/sql"
	"time"
)

// PostInstance is a single scheduled or posted occurrence of a ContentItem
// on one ChannelAccount. A planned slot synthesized by the top-off engine
// has no content bound yet.
type PostInstance struct {
	ID                int64          `db:"id" json:"id"`
	TenantID          string         `db:"tenant_id" json:"tenant_id"`
	ChannelAccountID  int64          `db:"channel_account_id" json:"channel_account_id"`
	ContentItemID     sql.NullInt64  `db:"content_item_id" json:"content_item_id"`
	CaptionOverride   string         `db:"caption_override" json:"caption_override"`
	ScheduledFor      sql.NullTime   `db:"scheduled_for" json:"scheduled_for"`
	Status            string         `db:"status" json:"status"`
	PostedAt          sql.NullTime   `db:"posted_at" json:"posted_at"`
	PostURL           string         `db:"post_url" json:"post_url"`
	PostedManually    bool           `db:"posted_manually" json:"posted_manually"`
	ScreenshotURL     string         `db:"screenshot_url" json:"screenshot_url"`
	AutopostEnabled   bool           `db:"autopost_enabled" json:"autopost_enabled"`
	LastError         string         `db:"last_error" json:"last_error"`
	SuggestedCategory string         `db:"suggested_category" json:"suggested_category"`
	Notes             string         `db:"notes" json:"notes"`
	PublishJobID      sql.NullInt64  `db:"publish_job_id" json:"publish_job_id"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	InstanceStatusPlanned       = "planned"
	InstanceStatusDraft         = "draft"
	InstanceStatusNeedsApproval = "needs_approval"
	InstanceStatusApproved      = "approved"
	InstanceStatusScheduled     = "scheduled"
	InstanceStatusPosted        = "posted"
	InstanceStatusFailed        = "failed"
)

// RequiresContent reports whether an instance in the given status must have
// a content item bound. Planned and draft slots may be contentless.
func RequiresContent(status string) bool {
	return status != InstanceStatusPlanned && status != InstanceStatusDraft
}

// Terminal reports whether the status admits no further transitions beyond
// cosmetic edits to post_url and screenshot_url.
func Terminal(status string) bool {
	return status == InstanceStatusPosted
}

// DuePost is a scheduled instance hydrated with its bound content item and
// account, as loaded by the auto-poster query.
type DuePost struct {
	Instance  PostInstance
	Item      ContentItem
	MediaURLs []string
	Account   ChannelAccount
}
