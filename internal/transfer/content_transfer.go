package transfer

// ContentItemCreation carries user input for creating or updating a content
// item.
type ContentItemCreation struct {
	Title           string   `json:"title"`
	BaseCaption     string   `json:"base_caption"`
	CTAType         string   `json:"cta_type"`
	CTAURL          string   `json:"cta_url"`
	Tags            []string `json:"tags"`
	TargetCity      string   `json:"target_city"`
	ContentCategory string   `json:"content_category"`
	Notes           string   `json:"notes"`
	ReviewerID      int64    `json:"reviewer_id"`
	SourceType      string   `json:"source_type"`
	SourceRef       string   `json:"source_ref"`
}

// ChannelAccountCreation carries user input for a channel account and its
// cadence config.
type ChannelAccountCreation struct {
	ChannelKey       string             `json:"channel_key"`
	Name             string             `json:"name"`
	ExternalID       string             `json:"external_id"`
	Status           string             `json:"status"`
	PostsPerWeek     *int               `json:"posts_per_week"`
	ScheduleTimezone string             `json:"schedule_timezone"`
	ScheduleTimes    []string           `json:"schedule_times"`
	BrandDiet        map[string]float64 `json:"brand_diet"`
	MixTargets       map[string]int     `json:"mix_targets"`
}

// PostInstanceCreation carries user input for an unscheduled draft or a
// manually placed slot.
type PostInstanceCreation struct {
	ChannelAccountID int64  `json:"channel_account_id"`
	ContentItemID    int64  `json:"content_item_id"`
	CaptionOverride  string `json:"caption_override"`
	ScheduledFor     string `json:"scheduled_for"`
	AutopostEnabled  *bool  `json:"autopost_enabled"`
}

// PostInstanceUpdate carries a partial edit. Nil fields are left alone.
// Posted instances accept only the cosmetic fields.
type PostInstanceUpdate struct {
	CaptionOverride *string `json:"caption_override"`
	Notes           *string `json:"notes"`
	AutopostEnabled *bool   `json:"autopost_enabled"`
	PostURL         *string `json:"post_url"`
	ScreenshotURL   *string `json:"screenshot_url"`
}
