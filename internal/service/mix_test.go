package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/transfer"
)

func TestIsoWeekStart(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, monday, isoWeekStart(monday))
	assert.Equal(t, monday, isoWeekStart(time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)))
	// Sunday belongs to the week that started the previous Monday.
	assert.Equal(t, monday, isoWeekStart(time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, monday.AddDate(0, 0, 7), isoWeekStart(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
}

func TestScoreMixBalanced(t *testing.T) {
	targets := DefaultMixTargets()
	counts := map[string]int{
		models.CategoryEducational:    2,
		models.CategoryAuthority:      1,
		models.CategoryPromo:          1,
		models.CategoryLocalRelevance: 1,
	}
	assert.Empty(t, scoreMix(counts, targets))
}

func TestScoreMixPromoExcess(t *testing.T) {
	targets := DefaultMixTargets()
	counts := map[string]int{
		models.CategoryEducational:    2,
		models.CategoryAuthority:      1,
		models.CategoryPromo:          3,
		models.CategoryLocalRelevance: 1,
	}

	warnings := scoreMix(counts, targets)
	require.Len(t, warnings, 1)
	assert.Equal(t, "too many promo posts (3 vs target 1)", warnings[0])

	// One over target is tolerated.
	counts[models.CategoryPromo] = 2
	assert.Empty(t, scoreMix(counts, targets))
}

func TestScoreMixDeficits(t *testing.T) {
	targets := DefaultMixTargets()
	counts := map[string]int{
		models.CategoryEducational:    0,
		models.CategoryAuthority:      0,
		models.CategoryPromo:          1,
		models.CategoryLocalRelevance: 0,
	}

	warnings := scoreMix(counts, targets)
	assert.ElementsMatch(t, []string{
		"need more educational",
		"need more authority",
		"need more local_relevance",
	}, warnings)
}

func newMixFixture(acc *models.ChannelAccount) (*mixService, *memInstanceRepo, *memItemRepo) {
	pi := newMemInstanceRepo()
	ci := newMemItemRepo()
	s := &mixService{
		ca:  &memAccountRepo{accounts: []*models.ChannelAccount{acc}},
		pi:  pi,
		ci:  ci,
		now: func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) },
	}
	return s, pi, ci
}

func boundInstance(pi *memInstanceRepo, accountID, itemID int64, at time.Time) {
	pi.add(&models.PostInstance{
		TenantID:         "t1",
		ChannelAccountID: accountID,
		ContentItemID:    sql.NullInt64{Int64: itemID, Valid: true},
		ScheduledFor:     sql.NullTime{Time: at, Valid: true},
		Status:           models.InstanceStatusScheduled,
	})
}

func TestSummarizeMixCountsByCanonicalCategory(t *testing.T) {
	acc := activeAccount(1, "t1")
	s, pi, ci := newMixFixture(acc)

	// Legacy labels count toward their canonical bucket.
	diy := &models.ContentItem{TenantID: "t1", ContentCategory: "diy"}
	coupon := &models.ContentItem{TenantID: "t1", ContentCategory: "coupon"}
	ci.Create(context.Background(), diy)
	ci.Create(context.Background(), coupon)

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	boundInstance(pi, acc.ID, diy.ID, weekStart.Add(9*time.Hour))
	boundInstance(pi, acc.ID, coupon.ID, weekStart.AddDate(0, 0, 2).Add(9*time.Hour))

	// A contentless planned slot contributes nothing.
	pi.add(&models.PostInstance{
		TenantID:         "t1",
		ChannelAccountID: acc.ID,
		ScheduledFor:     sql.NullTime{Time: weekStart.AddDate(0, 0, 4), Valid: true},
		Status:           models.InstanceStatusPlanned,
	})

	summaries, err := s.SummarizeMix(context.Background(), "t1", 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	summary := summaries[0]
	assert.Equal(t, weekStart, summary.WeekStart)
	assert.Equal(t, 1, summary.Counts[models.CategoryEducational])
	assert.Equal(t, 1, summary.Counts[models.CategoryPromo])
	assert.Equal(t, 0, summary.Counts[models.CategoryAuthority])
}

func TestSummarizeMixHealthLevels(t *testing.T) {
	acc := activeAccount(1, "t1")
	s, pi, ci := newMixFixture(acc)

	// Empty week misses three non-promo targets: critical.
	summaries, err := s.SummarizeMix(context.Background(), "t1", 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, transfer.HealthCritical, summaries[0].OverallHealth)
	assert.Len(t, summaries[0].Warnings, 3)

	// Filling two of the gaps leaves a single warning.
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, cat := range []string{
		models.CategoryEducational, models.CategoryEducational, models.CategoryAuthority,
	} {
		item := &models.ContentItem{TenantID: "t1", ContentCategory: cat}
		ci.Create(context.Background(), item)
		boundInstance(pi, acc.ID, item.ID, weekStart.AddDate(0, 0, i).Add(9*time.Hour))
	}

	summaries, err = s.SummarizeMix(context.Background(), "t1", 1)
	require.NoError(t, err)
	assert.Equal(t, transfer.HealthWarning, summaries[0].OverallHealth)
	assert.Equal(t, []string{"need more local_relevance"}, summaries[0].Warnings)
}

func TestSummarizeMixAccountTargetsOverrideDefaults(t *testing.T) {
	acc := activeAccount(1, "t1")
	acc.MixTargets = models.MixTargets{
		"educational":     0,
		"authority":       0,
		"local_relevance": 0,
		"promo":           0,
	}
	s, _, _ := newMixFixture(acc)

	summaries, err := s.SummarizeMix(context.Background(), "t1", 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Empty(t, summaries[0].Warnings)
	assert.Equal(t, transfer.HealthGood, summaries[0].OverallHealth)
}

func TestSummarizeMixMultipleWeeksNewestFirst(t *testing.T) {
	acc := activeAccount(1, "t1")
	s, _, _ := newMixFixture(acc)

	summaries, err := s.SummarizeMix(context.Background(), "t1", 3)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, summary := range summaries {
		assert.Equal(t, week.AddDate(0, 0, -7*i), summary.WeekStart)
	}
}
