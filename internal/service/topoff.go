package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/transfer"
)

const DefaultHorizonDays = 28

// Categories a channel can carry. Channels absent from this map accept all
// four. Nextdoor has no place for team spotlights.
var channelAllowedCategories = map[string][]string{
	models.ChannelNextdoor: {
		models.CategoryEducational,
		models.CategoryPromo,
		models.CategoryLocalRelevance,
	},
}

var slotHints = map[string]string{
	models.CategoryEducational:    "Planned slot: share a how-to, maintenance tip, or seasonal checklist.",
	models.CategoryAuthority:      "Planned slot: spotlight the crew, a finished job, or a certification.",
	models.CategoryPromo:          "Planned slot: run a coupon, offer, or limited-time promotion.",
	models.CategoryLocalRelevance: "Planned slot: tie in a local event, neighborhood, or community cause.",
}

type TopoffService interface {
	Topoff(ctx context.Context, tenantID string, horizonDays int) (*transfer.TopoffResult, error)
	TopoffAll(ctx context.Context, horizonDays int) error
}

type topoffService struct {
	db   *sql.DB
	ca   repository.ChannelAccountRepository
	pi   repository.PostInstanceRepository
	now  func() time.Time
	rand func() float64
}

func NewTopoffService(db *sql.DB, ca repository.ChannelAccountRepository, pi repository.PostInstanceRepository) TopoffService {
	return &topoffService{
		db:   db,
		ca:   ca,
		pi:   pi,
		now:  time.Now,
		rand: rand.Float64,
	}
}

// Topoff reconciles every active account's planned slots against its cadence
// for the next horizonDays. It only ever inserts contentless planned slots;
// existing instances are never touched, whatever their status. Running it
// again with unchanged state is a no-op.
func (s *topoffService) Topoff(ctx context.Context, tenantID string, horizonDays int) (*transfer.TopoffResult, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	windowStart := s.now().UTC().Truncate(24 * time.Hour)
	windowEnd := windowStart.AddDate(0, 0, horizonDays)

	accounts, err := s.ca.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &transfer.TopoffResult{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	var tx *sql.Tx
	if s.db != nil {
		tx, err = s.db.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to start transaction: %w", err)
		}
		defer func() {
			if err != nil {
				tx.Rollback()
			}
		}()
	}

	for _, acc := range accounts {
		targets := PlanWindow(acc, windowStart, windowEnd)
		if len(targets) == 0 {
			result.AccountsProcessed++
			continue
		}

		existing, lerr := s.pi.ListScheduledBetween(ctx, tenantID, acc.ID, windowStart, windowEnd)
		if lerr != nil {
			err = lerr
			return nil, err
		}

		// Matching ignores seconds so clock drift and timezone conversion
		// rounding cannot duplicate a slot.
		taken := make(map[time.Time]bool, len(existing))
		for _, inst := range existing {
			if inst.ScheduledFor.Valid {
				taken[inst.ScheduledFor.Time.UTC().Truncate(time.Minute)] = true
			}
		}

		var batch []*models.PostInstance
		for _, t := range targets {
			if taken[t.Truncate(time.Minute)] {
				result.InstancesSkipped++
				continue
			}
			category := s.drawCategory(acc)
			batch = append(batch, &models.PostInstance{
				TenantID:          tenantID,
				ChannelAccountID:  acc.ID,
				ScheduledFor:      sql.NullTime{Time: t, Valid: true},
				Status:            models.InstanceStatusPlanned,
				AutopostEnabled:   true,
				SuggestedCategory: category,
				Notes:             slotHints[category],
			})
		}

		inserted, cerr := s.pi.BulkCreatePlanned(ctx, tx, batch)
		if cerr != nil {
			err = cerr
			return nil, err
		}
		result.InstancesCreated += inserted
		// Rows lost to the uniqueness constraint were created by a
		// concurrent run; count them as skipped, not failed.
		result.InstancesSkipped += len(batch) - inserted
		result.AccountsProcessed++
	}

	if tx != nil {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
	}
	return result, nil
}

// TopoffAll runs Topoff for every tenant with channel accounts. Used by the
// daily scheduler; tenants fail independently.
func (s *topoffService) TopoffAll(ctx context.Context, horizonDays int) error {
	tenants, err := s.ca.ListTenants(ctx)
	if err != nil {
		return err
	}

	for _, tenant := range tenants {
		res, err := s.Topoff(ctx, tenant, horizonDays)
		if err != nil {
			slog.Error("topoff failed", "tenant", tenant, "error", err.Error())
			continue
		}
		slog.Info("topoff done", "tenant", tenant,
			"created", res.InstancesCreated, "skipped", res.InstancesSkipped)
	}
	return nil
}

// drawCategory picks a suggested category by weighted random draw from the
// account's brand diet, filtered to what the channel supports. Zero usable
// weight falls back to a uniform draw over the allowed set.
func (s *topoffService) drawCategory(acc *models.ChannelAccount) string {
	diet := acc.BrandDiet
	if len(diet) == 0 {
		diet = models.DefaultDiet()
	}

	allowed := allowedSet(acc.ChannelKey)

	weights := make(map[string]float64)
	for label, w := range diet {
		canonical, ok := models.CanonicalCategory(label)
		if !ok || !allowed[canonical] || w <= 0 {
			continue
		}
		weights[canonical] += w
	}

	if len(weights) == 0 {
		for _, c := range models.CanonicalCategories() {
			if allowed[c] {
				weights[c] = 1
			}
		}
	}

	cats := make([]string, 0, len(weights))
	for c := range weights {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var sum float64
	for _, c := range cats {
		sum += weights[c]
	}

	r := s.rand() * sum
	for _, c := range cats {
		r -= weights[c]
		if r < 0 {
			return c
		}
	}
	return cats[len(cats)-1]
}

func allowedSet(channelKey string) map[string]bool {
	set := make(map[string]bool, 4)
	if cats, ok := channelAllowedCategories[channelKey]; ok {
		for _, c := range cats {
			set[c] = true
		}
		return set
	}
	for _, c := range models.CanonicalCategories() {
		set[c] = true
	}
	return set
}
