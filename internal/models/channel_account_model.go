package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

type ChannelAccount struct {
	ID               int64          `db:"id" json:"id"`
	TenantID         string         `db:"tenant_id" json:"tenant_id"`
	ChannelKey       string         `db:"channel_key" json:"channel_key"`
	Name             string         `db:"name" json:"name"`
	ExternalID       string         `db:"external_id" json:"external_id"`
	Status           sql.NullString `db:"status" json:"status"`
	Connected        bool           `db:"connected" json:"connected"`
	OAuthProvider    string         `db:"oauth_provider" json:"oauth_provider"`
	OAuthTokenRef    string         `db:"oauth_token_ref" json:"-"`
	TokenExpiresAt   sql.NullTime   `db:"token_expires_at" json:"token_expires_at"`
	PostsPerWeek     int            `db:"posts_per_week" json:"posts_per_week"`
	ScheduleTimezone string         `db:"schedule_timezone" json:"schedule_timezone"`
	ScheduleTimes    pq.StringArray `db:"schedule_times" json:"schedule_times"`
	BrandDiet        Diet           `db:"brand_diet" json:"brand_diet"`
	MixTargets       MixTargets     `db:"mix_targets" json:"mix_targets"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

const AccountStatusActive = "active"

// IsActive treats a null status as active for accounts created before the
// status column existed.
func (a *ChannelAccount) IsActive() bool {
	return !a.Status.Valid || a.Status.String == AccountStatusActive
}

// Diet maps a category name to a non-negative weight. Stored as jsonb.
type Diet map[string]float64

func (d *Diet) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		b = []byte(src.(string))
	}
	return json.Unmarshal(b, d)
}

func (d Diet) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Normalized returns the diet with negative weights dropped and the rest
// scaled to sum to 1. Returns nil if nothing usable remains.
func (d Diet) Normalized() Diet {
	var sum float64
	for _, w := range d {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 {
		return nil
	}
	out := make(Diet, len(d))
	for cat, w := range d {
		if w > 0 {
			out[cat] = w / sum
		}
	}
	return out
}

// MixTargets maps a canonical category to a weekly target count. Stored as
// jsonb; nil means the configured defaults apply.
type MixTargets map[string]int

func (t *MixTargets) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		b = []byte(src.(string))
	}
	return json.Unmarshal(b, t)
}

func (t MixTargets) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

const (
	DefaultPostsPerWeek = 3
	DefaultTimezone     = "America/Los_Angeles"
)

// DefaultScheduleTime is used when an account has no schedule_times.
const DefaultScheduleTime = "09:00"

// DefaultDiet is applied to accounts without a configured brand diet.
func DefaultDiet() Diet {
	return Diet{"team_post": 0.4, "diy": 0.2, "coupon": 0.2, "blog_post": 0.2}
}
