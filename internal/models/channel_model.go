package models

import "time"

// MarketingChannel is a platform kind (GBP, Facebook Page, Instagram
// Business, Nextdoor). Seeded at install and effectively read-only.
type MarketingChannel struct {
	ID               int64     `db:"id" json:"id"`
	ChannelKey       string    `db:"channel_key" json:"channel_key"`
	DisplayName      string    `db:"display_name" json:"display_name"`
	SupportsAutopost bool      `db:"supports_autopost" json:"supports_autopost"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

const (
	ChannelGoogleBusiness = "google_business"
	ChannelFacebookPage   = "facebook_page"
	ChannelInstagram      = "instagram_business"
	ChannelNextdoor       = "nextdoor"
)
