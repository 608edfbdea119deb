package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type ContentItem struct {
	ID              int64          `db:"id" json:"id"`
	TenantID        string         `db:"tenant_id" json:"tenant_id"`
	Title           string         `db:"title" json:"title"`
	BaseCaption     string         `db:"base_caption" json:"base_caption"`
	CTAType         string         `db:"cta_type" json:"cta_type"`
	CTAURL          string         `db:"cta_url" json:"cta_url"`
	Tags            pq.StringArray `db:"tags" json:"tags"`
	TargetCity      string         `db:"target_city" json:"target_city"`
	ContentCategory string         `db:"content_category" json:"content_category"`
	Status          string         `db:"status" json:"status"`
	Notes           string         `db:"notes" json:"notes"`
	OwnerID         sql.NullInt64  `db:"owner_id" json:"owner_id"`
	ReviewerID      sql.NullInt64  `db:"reviewer_id" json:"reviewer_id"`
	SourceType      string         `db:"source_type" json:"source_type"`
	SourceRef       string         `db:"source_ref" json:"source_ref"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	ItemStatusIdea          = "idea"
	ItemStatusDraft         = "draft"
	ItemStatusNeedsApproval = "needs_approval"
	ItemStatusScheduled     = "scheduled"
	ItemStatusPosted        = "posted"
)

// Canonical editorial categories. Legacy labels used by older rows and by
// synthesized slots are mapped into these four.
const (
	CategoryEducational    = "educational"
	CategoryAuthority      = "authority"
	CategoryPromo          = "promo"
	CategoryLocalRelevance = "local_relevance"
)

var categoryAliases = map[string]string{
	"diy":             CategoryEducational,
	"blog_post":       CategoryEducational,
	"educational":     CategoryEducational,
	"team_post":       CategoryAuthority,
	"authority":       CategoryAuthority,
	"coupon":          CategoryPromo,
	"promo":           CategoryPromo,
	"offer":           CategoryPromo,
	"local":           CategoryLocalRelevance,
	"local_relevance": CategoryLocalRelevance,
}

// CanonicalCategory maps a stored category label to one of the four
// canonical buckets. The second return is false for unrecognized labels.
func CanonicalCategory(label string) (string, bool) {
	c, ok := categoryAliases[label]
	return c, ok
}

// CanonicalCategories lists the four buckets in display order.
func CanonicalCategories() []string {
	return []string{CategoryEducational, CategoryAuthority, CategoryPromo, CategoryLocalRelevance}
}
