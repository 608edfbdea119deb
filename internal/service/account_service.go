package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/transfer"
)

type AccountService interface {
	Create(ctx context.Context, tenantID string, ac *transfer.ChannelAccountCreation) (int64, error)
	Get(ctx context.Context, tenantID string, id int64) (*models.ChannelAccount, error)
	List(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error)
	Update(ctx context.Context, tenantID string, id int64, ac *transfer.ChannelAccountCreation) error
	Delete(ctx context.Context, tenantID string, id int64) error
	Channels(ctx context.Context) ([]*models.MarketingChannel, error)
	SeedChannels(ctx context.Context) (int, error)
}

type accountService struct {
	ca repository.ChannelAccountRepository
	ch repository.ChannelRepository
}

func NewAccountService(ca repository.ChannelAccountRepository, ch repository.ChannelRepository) AccountService {
	return &accountService{
		ca: ca,
		ch: ch,
	}
}

func (s *accountService) validateCadence(ac *transfer.ChannelAccountCreation) error {
	if ac.PostsPerWeek != nil && *ac.PostsPerWeek < 0 {
		return validationf("posts_per_week cannot be negative")
	}
	if ac.ScheduleTimezone != "" {
		if _, err := time.LoadLocation(ac.ScheduleTimezone); err != nil {
			return validationf("unknown timezone %q", ac.ScheduleTimezone)
		}
	}
	for _, t := range ac.ScheduleTimes {
		if !validClock(t) {
			return validationf("schedule time %q is not HH:MM", t)
		}
	}
	for cat, w := range ac.BrandDiet {
		if w < 0 {
			return validationf("brand diet weight for %q cannot be negative", cat)
		}
	}
	for cat, n := range ac.MixTargets {
		if n < 0 {
			return validationf("mix target for %q cannot be negative", cat)
		}
	}
	return nil
}

func (s *accountService) Create(ctx context.Context, tenantID string, ac *transfer.ChannelAccountCreation) (int64, error) {
	if ac.Name == "" {
		return 0, validationf("name cannot be empty")
	}

	channel, err := s.ch.GetByKey(ctx, ac.ChannelKey)
	if err != nil {
		return 0, err
	}
	if channel == nil {
		return 0, validationf("unknown channel %q", ac.ChannelKey)
	}

	if err := s.validateCadence(ac); err != nil {
		return 0, err
	}

	acc := &models.ChannelAccount{
		TenantID:         tenantID,
		ChannelKey:       ac.ChannelKey,
		Name:             ac.Name,
		ExternalID:       ac.ExternalID,
		Status:           sql.NullString{String: models.AccountStatusActive, Valid: true},
		PostsPerWeek:     models.DefaultPostsPerWeek,
		ScheduleTimezone: models.DefaultTimezone,
		ScheduleTimes:    []string{models.DefaultScheduleTime},
		BrandDiet:        models.DefaultDiet(),
	}
	applyCadence(acc, ac)

	return s.ca.Create(ctx, acc)
}

func applyCadence(acc *models.ChannelAccount, ac *transfer.ChannelAccountCreation) {
	if ac.Status != "" {
		acc.Status = sql.NullString{String: ac.Status, Valid: true}
	}
	if ac.PostsPerWeek != nil {
		acc.PostsPerWeek = *ac.PostsPerWeek
	}
	if ac.ScheduleTimezone != "" {
		acc.ScheduleTimezone = ac.ScheduleTimezone
	}
	if len(ac.ScheduleTimes) > 0 {
		acc.ScheduleTimes = ac.ScheduleTimes
	}
	if len(ac.BrandDiet) > 0 {
		acc.BrandDiet = models.Diet(ac.BrandDiet)
	}
	if len(ac.MixTargets) > 0 {
		acc.MixTargets = models.MixTargets(ac.MixTargets)
	}
}

func (s *accountService) Get(ctx context.Context, tenantID string, id int64) (*models.ChannelAccount, error) {
	acc, err := s.ca.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrNotFound
	}
	return acc, nil
}

func (s *accountService) List(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error) {
	return s.ca.ListByTenant(ctx, tenantID)
}

// Update rewrites the account's editable fields. Diet changes apply only to
// slots synthesized afterwards; existing planned slots keep the category
// they were drawn with.
func (s *accountService) Update(ctx context.Context, tenantID string, id int64, ac *transfer.ChannelAccountCreation) error {
	acc, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.validateCadence(ac); err != nil {
		return err
	}
	if ac.Name != "" {
		acc.Name = ac.Name
	}
	if ac.ExternalID != "" {
		acc.ExternalID = ac.ExternalID
	}
	applyCadence(acc, ac)

	return s.ca.Update(ctx, acc)
}

func (s *accountService) Delete(ctx context.Context, tenantID string, id int64) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	return s.ca.Remove(ctx, tenantID, id)
}

func (s *accountService) Channels(ctx context.Context) ([]*models.MarketingChannel, error) {
	return s.ch.List(ctx)
}

// SeedChannels inserts the supported marketing channels, skipping any that
// already exist.
func (s *accountService) SeedChannels(ctx context.Context) (int, error) {
	channels := []*models.MarketingChannel{
		{ChannelKey: models.ChannelGoogleBusiness, DisplayName: "Google Business Profile", SupportsAutopost: true},
		{ChannelKey: models.ChannelFacebookPage, DisplayName: "Facebook Page", SupportsAutopost: true},
		{ChannelKey: models.ChannelInstagram, DisplayName: "Instagram Business", SupportsAutopost: true},
		{ChannelKey: models.ChannelNextdoor, DisplayName: "Nextdoor", SupportsAutopost: false},
	}
	return s.ch.Seed(ctx, channels)
}
