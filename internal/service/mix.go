package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/transfer"
)

// DefaultMixTargets is the weekly editorial diet applied to accounts without
// their own targets.
func DefaultMixTargets() map[string]int {
	return map[string]int{
		models.CategoryEducational:    2,
		models.CategoryAuthority:      1,
		models.CategoryPromo:          1,
		models.CategoryLocalRelevance: 1,
	}
}

type MixService interface {
	SummarizeMix(ctx context.Context, tenantID string, weeks int) ([]*transfer.MixSummary, error)
}

type mixService struct {
	ca  repository.ChannelAccountRepository
	pi  repository.PostInstanceRepository
	ci  repository.ContentItemRepository
	now func() time.Time
}

func NewMixService(ca repository.ChannelAccountRepository, pi repository.PostInstanceRepository, ci repository.ContentItemRepository) MixService {
	return &mixService{
		ca:  ca,
		pi:  pi,
		ci:  ci,
		now: time.Now,
	}
}

// SummarizeMix scores each active account's planned and actual posts against
// its editorial targets, one summary per account per ISO week, newest week
// first. Read-only.
func (s *mixService) SummarizeMix(ctx context.Context, tenantID string, weeks int) ([]*transfer.MixSummary, error) {
	if weeks <= 0 {
		weeks = 1
	}

	accounts, err := s.ca.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	currentWeek := isoWeekStart(s.now().UTC())

	var summaries []*transfer.MixSummary
	for _, acc := range accounts {
		for w := 0; w < weeks; w++ {
			weekStart := currentWeek.AddDate(0, 0, -7*w)
			summary, err := s.summarizeWeek(ctx, tenantID, acc, weekStart)
			if err != nil {
				return nil, err
			}
			summaries = append(summaries, summary)
		}
	}
	return summaries, nil
}

func (s *mixService) summarizeWeek(ctx context.Context, tenantID string, acc *models.ChannelAccount, weekStart time.Time) (*transfer.MixSummary, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)

	instances, err := s.pi.ListScheduledBetween(ctx, tenantID, acc.ID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, 4)
	for _, c := range models.CanonicalCategories() {
		counts[c] = 0
	}

	for _, inst := range instances {
		if !inst.ContentItemID.Valid {
			continue
		}
		item, err := s.ci.GetByID(ctx, tenantID, inst.ContentItemID.Int64)
		if err != nil {
			return nil, err
		}
		if item == nil || item.ContentCategory == "" {
			continue
		}
		canonical, ok := models.CanonicalCategory(item.ContentCategory)
		if !ok {
			continue
		}
		counts[canonical]++
	}

	targets := DefaultMixTargets()
	for cat, n := range acc.MixTargets {
		if canonical, ok := models.CanonicalCategory(cat); ok {
			targets[canonical] = n
		}
	}

	warnings := scoreMix(counts, targets)

	health := transfer.HealthGood
	switch {
	case len(warnings) >= 3:
		health = transfer.HealthCritical
	case len(warnings) >= 1:
		health = transfer.HealthWarning
	}

	return &transfer.MixSummary{
		AccountID:     acc.ID,
		AccountName:   acc.Name,
		ChannelKey:    acc.ChannelKey,
		WeekStart:     weekStart,
		Counts:        counts,
		Targets:       targets,
		Warnings:      warnings,
		OverallHealth: health,
	}, nil
}

func scoreMix(counts, targets map[string]int) []string {
	var warnings []string

	if counts[models.CategoryPromo]-targets[models.CategoryPromo] >= 2 {
		warnings = append(warnings, fmt.Sprintf("too many promo posts (%d vs target %d)",
			counts[models.CategoryPromo], targets[models.CategoryPromo]))
	}

	for _, cat := range models.CanonicalCategories() {
		if cat == models.CategoryPromo {
			continue
		}
		if counts[cat] < targets[cat] {
			warnings = append(warnings, fmt.Sprintf("need more %s", cat))
		}
	}
	return warnings
}

// isoWeekStart returns Monday 00:00 UTC of the week containing t.
func isoWeekStart(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}
