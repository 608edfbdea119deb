package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/transfer"
	"github.com/tradehq/backflow/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenRefreshJob renews channel account tokens that expire within the
// next half hour. The swap is a compare-and-set on the stored ref so two
// overlapping runs can't clobber each other.
type TokenRefreshJob struct {
	cfg *config.Config
	ca  repository.ChannelAccountRepository
}

func NewTokenRefreshJob(cfg *config.Config, ca repository.ChannelAccountRepository) *TokenRefreshJob {
	return &TokenRefreshJob{
		cfg: cfg,
		ca:  ca,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := j.ca.ListExpiringTokens(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.ChannelAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.refreshOne(ctx, acc); err != nil {
				slog.Info("unable to refresh token",
					"account_id", acc.ID, "channel", acc.ChannelKey, "error", err.Error())
			}
		}(acc)
	}

	wg.Wait()
}

func (j *TokenRefreshJob) refreshOne(ctx context.Context, acc *models.ChannelAccount) error {
	tok, err := utils.DecodeTokenRef(acc.OAuthTokenRef, []byte(j.cfg.SecretKey))
	if err != nil {
		return err
	}

	var renewed *transfer.OAuthToken
	switch acc.OAuthProvider {
	case "google":
		renewed, err = j.refreshGoogle(ctx, tok)
	case "instagram":
		renewed, err = j.refreshGraph(ctx, tok)
	case "facebook":
		// Page tokens minted from a long-lived user token do not expire;
		// only the bookkeeping expiry moves forward.
		renewed = &transfer.OAuthToken{
			AccessToken: tok.AccessToken,
			ExpiresAt:   time.Now().Add(60 * 24 * time.Hour),
		}
	default:
		return fmt.Errorf("no refresh flow for provider %s", acc.OAuthProvider)
	}
	if err != nil {
		return err
	}

	newRef, err := utils.EncodeTokenRef(renewed, []byte(j.cfg.SecretKey))
	if err != nil {
		return err
	}

	swapped, err := j.ca.SwapTokenRef(ctx, acc.ID, acc.OAuthTokenRef, newRef, renewed.ExpiresAt)
	if err != nil {
		return err
	}
	if !swapped {
		// Someone else refreshed first; their token is the live one.
		slog.Info("token already refreshed concurrently", "account_id", acc.ID)
	}
	return nil
}

func (j *TokenRefreshJob) refreshGoogle(ctx context.Context, tok *transfer.OAuthToken) (*transfer.OAuthToken, error) {
	conf := &oauth2.Config{
		ClientID:     j.cfg.GoogleClientID,
		ClientSecret: j.cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/business.manage"},
		Endpoint:     google.Endpoint,
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	fresh, err := tokenSource.Token()
	if err != nil {
		return nil, err
	}

	return &transfer.OAuthToken{
		AccessToken:  fresh.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    fresh.Expiry,
	}, nil
}

func (j *TokenRefreshJob) refreshGraph(ctx context.Context, tok *transfer.OAuthToken) (*transfer.OAuthToken, error) {
	url := fmt.Sprintf(
		"https://graph.instagram.com/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		tok.AccessToken,
	)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from refresh endpoint: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &transfer.OAuthToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}
