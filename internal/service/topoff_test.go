package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehq/backflow/internal/models"
)

func newTopoffFixture(accounts ...*models.ChannelAccount) (*topoffService, *memInstanceRepo) {
	pi := newMemInstanceRepo()
	s := &topoffService{
		ca:   &memAccountRepo{accounts: accounts},
		pi:   pi,
		now:  func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) },
		rand: func() float64 { return 0 },
	}
	return s, pi
}

func activeAccount(id int64, tenantID string) *models.ChannelAccount {
	return &models.ChannelAccount{
		ID:               id,
		TenantID:         tenantID,
		ChannelKey:       models.ChannelFacebookPage,
		Name:             "Main Page",
		PostsPerWeek:     3,
		ScheduleTimezone: "UTC",
		ScheduleTimes:    []string{"09:00"},
	}
}

func TestTopoffFillsEmptyWindow(t *testing.T) {
	acc := activeAccount(1, "t1")
	s, pi := newTopoffFixture(acc)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	expected := len(PlanWindow(acc, windowStart, windowStart.AddDate(0, 0, 28)))
	require.Greater(t, expected, 0)

	res, err := s.Topoff(context.Background(), "t1", 28)
	require.NoError(t, err)

	assert.Equal(t, 1, res.AccountsProcessed)
	assert.Equal(t, expected, res.InstancesCreated)
	assert.Equal(t, 0, res.InstancesSkipped)
	assert.Equal(t, windowStart, res.WindowStart)

	for _, inst := range pi.instances {
		assert.Equal(t, models.InstanceStatusPlanned, inst.Status)
		assert.False(t, inst.ContentItemID.Valid, "planned slots start contentless")
		assert.True(t, inst.AutopostEnabled)
		assert.True(t, inst.ScheduledFor.Valid)
		assert.NotEmpty(t, inst.SuggestedCategory)
		assert.NotEmpty(t, inst.Notes)
	}
}

func TestTopoffRerunIsNoop(t *testing.T) {
	acc := activeAccount(1, "t1")
	s, pi := newTopoffFixture(acc)

	first, err := s.Topoff(context.Background(), "t1", 28)
	require.NoError(t, err)
	require.Greater(t, first.InstancesCreated, 0)

	before := len(pi.instances)
	second, err := s.Topoff(context.Background(), "t1", 28)
	require.NoError(t, err)

	assert.Equal(t, 0, second.InstancesCreated)
	assert.Equal(t, first.InstancesCreated, second.InstancesSkipped)
	assert.Len(t, pi.instances, before)
}

func TestTopoffLeavesExistingInstancesAlone(t *testing.T) {
	acc := activeAccount(1, "t1")
	s, pi := newTopoffFixture(acc)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	targets := PlanWindow(acc, windowStart, windowStart.AddDate(0, 0, 28))
	require.NotEmpty(t, targets)

	// A slot already occupied, even by a posted instance, must not be
	// duplicated or touched.
	occupied := pi.add(&models.PostInstance{
		TenantID:         "t1",
		ChannelAccountID: acc.ID,
		ScheduledFor:     sql.NullTime{Time: targets[0], Valid: true},
		Status:           models.InstanceStatusPosted,
		PostURL:          "https://www.facebook.com/existing",
	})

	res, err := s.Topoff(context.Background(), "t1", 28)
	require.NoError(t, err)

	assert.Equal(t, len(targets)-1, res.InstancesCreated)
	assert.Equal(t, 1, res.InstancesSkipped)
	assert.Equal(t, models.InstanceStatusPosted, pi.instances[occupied.ID].Status)
	assert.Equal(t, "https://www.facebook.com/existing", pi.instances[occupied.ID].PostURL)
}

func TestTopoffSkipsInactiveAccounts(t *testing.T) {
	acc := activeAccount(1, "t1")
	acc.Status = sql.NullString{String: "paused", Valid: true}
	s, pi := newTopoffFixture(acc)

	res, err := s.Topoff(context.Background(), "t1", 28)
	require.NoError(t, err)

	assert.Equal(t, 0, res.AccountsProcessed)
	assert.Equal(t, 0, res.InstancesCreated)
	assert.Empty(t, pi.instances)
}

func TestTopoffAllCoversEveryTenant(t *testing.T) {
	s, pi := newTopoffFixture(activeAccount(1, "t1"), activeAccount(2, "t2"))

	err := s.TopoffAll(context.Background(), 28)
	require.NoError(t, err)

	tenants := make(map[string]int)
	for _, inst := range pi.instances {
		tenants[inst.TenantID]++
	}
	assert.Greater(t, tenants["t1"], 0)
	assert.Greater(t, tenants["t2"], 0)
}

func TestDrawCategoryWeightedByDiet(t *testing.T) {
	acc := activeAccount(1, "t1")
	// Default diet collapses to authority 0.4, educational 0.4, promo 0.2.
	// With the draw pinned at zero, the first bucket in sorted order wins.
	s := &topoffService{rand: func() float64 { return 0 }}
	assert.Equal(t, models.CategoryAuthority, s.drawCategory(acc))

	// Push the draw to the far end of the cumulative weights.
	s.rand = func() float64 { return 0.999 }
	assert.Equal(t, models.CategoryPromo, s.drawCategory(acc))
}

func TestDrawCategoryRespectsChannelRestrictions(t *testing.T) {
	acc := activeAccount(1, "t1")
	acc.ChannelKey = models.ChannelNextdoor
	acc.BrandDiet = models.Diet{"team_post": 1}

	// The only configured category is not allowed on this channel, so the
	// draw falls back to a uniform pick over what the channel supports.
	s := &topoffService{rand: func() float64 { return 0 }}
	got := s.drawCategory(acc)
	assert.NotEqual(t, models.CategoryAuthority, got)
	assert.Equal(t, models.CategoryEducational, got)
}

func TestTopoffSuggestedCategoriesAreCanonical(t *testing.T) {
	s, pi := newTopoffFixture(activeAccount(1, "t1"))

	_, err := s.Topoff(context.Background(), "t1", 28)
	require.NoError(t, err)

	canonical := make(map[string]bool)
	for _, c := range models.CanonicalCategories() {
		canonical[c] = true
	}
	for _, inst := range pi.instances {
		assert.True(t, canonical[inst.SuggestedCategory],
			"unexpected category %q", inst.SuggestedCategory)
	}
}
