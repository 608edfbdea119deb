package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/transfer"
	"github.com/tradehq/backflow/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ConnectService wires a channel account to its platform by exchanging an
// OAuth code and storing the sealed token ref.
type ConnectService interface {
	AuthURL(channelKey, state string) (string, error)
	Callback(ctx context.Context, tenantID string, accountID int64, code string) error
	Disconnect(ctx context.Context, tenantID string, accountID int64) error
}

type connectService struct {
	cfg *config.Config
	ca  repository.ChannelAccountRepository
}

func NewConnectService(cfg *config.Config, ca repository.ChannelAccountRepository) ConnectService {
	return &connectService{
		cfg: cfg,
		ca:  ca,
	}
}

func (s *connectService) googleConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/business.manage"},
		Endpoint:     google.Endpoint,
	}
}

func (s *connectService) AuthURL(channelKey, state string) (string, error) {
	switch channelKey {
	case models.ChannelGoogleBusiness:
		return s.googleConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
	case models.ChannelFacebookPage:
		return fmt.Sprintf(
			"https://www.facebook.com/v21.0/dialog/oauth?client_id=%s&redirect_uri=%s&state=%s&scope=pages_manage_posts,pages_read_engagement",
			s.cfg.FacebookAppID, url.QueryEscape(s.cfg.FacebookRedirectURI), state), nil
	case models.ChannelInstagram:
		return fmt.Sprintf(
			"https://api.instagram.com/oauth/authorize?client_id=%s&redirect_uri=%s&state=%s&scope=instagram_business_basic,instagram_business_content_publish&response_type=code",
			s.cfg.FacebookAppID, url.QueryEscape(s.cfg.InstagramRedirectURI), state), nil
	}
	return "", validationf("channel %s has no OAuth connect flow", channelKey)
}

func (s *connectService) Callback(ctx context.Context, tenantID string, accountID int64, code string) error {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	acc, err := s.ca.GetByID(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if acc == nil {
		return validationf("channel account %d not found", accountID)
	}

	var (
		provider string
		token    *transfer.OAuthToken
	)
	switch acc.ChannelKey {
	case models.ChannelGoogleBusiness:
		provider = "google"
		token, err = s.exchangeGoogle(ctx, code)
	case models.ChannelFacebookPage:
		provider = "facebook"
		token, err = s.exchangeFacebook(ctx, acc.ExternalID, code)
	case models.ChannelInstagram:
		provider = "instagram"
		token, err = s.exchangeInstagram(ctx, code)
	default:
		return validationf("channel %s has no OAuth connect flow", acc.ChannelKey)
	}
	if err != nil {
		return err
	}

	ref, err := utils.EncodeTokenRef(token, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.ca.UpdateConnection(ctx, tenantID, accountID, provider, ref, token.ExpiresAt)
}

func (s *connectService) Disconnect(ctx context.Context, tenantID string, accountID int64) error {
	return s.ca.UpdateConnection(ctx, tenantID, accountID, "", "", time.Time{})
}

func (s *connectService) exchangeGoogle(ctx context.Context, code string) (*transfer.OAuthToken, error) {
	conf := s.googleConfig()
	if conf.ClientID == "" || conf.ClientSecret == "" || conf.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return nil, err
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if token.RefreshToken == "" {
		err = errors.New("refresh token is empty")
		slog.Info(err.Error())
		return nil, err
	}

	return &transfer.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// exchangeFacebook trades the code for a user token, then picks up the
// long-lived token of the page this account is bound to.
func (s *connectService) exchangeFacebook(ctx context.Context, pageID, code string) (*transfer.OAuthToken, error) {
	tokenURL := fmt.Sprintf(
		"https://graph.facebook.com/v21.0/oauth/access_token?client_id=%s&redirect_uri=%s&client_secret=%s&code=%s",
		s.cfg.FacebookAppID, url.QueryEscape(s.cfg.FacebookRedirectURI), s.cfg.FacebookAppSecret, code)

	var userToken struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := getJSON(ctx, tokenURL, &userToken); err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	pagesURL := fmt.Sprintf(
		"https://graph.facebook.com/v21.0/me/accounts?access_token=%s", userToken.AccessToken)

	var pages struct {
		Data []transfer.FacebookPage `json:"data"`
	}
	if err := getJSON(ctx, pagesURL, &pages); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	for _, page := range pages.Data {
		if page.ID == pageID {
			// Page tokens obtained from a long-lived user token do not
			// expire on their own.
			return &transfer.OAuthToken{
				AccessToken: page.AccessToken,
				ExpiresAt:   time.Now().Add(60 * 24 * time.Hour),
			}, nil
		}
	}

	return nil, fmt.Errorf("page %s is not managed by this user", pageID)
}

func (s *connectService) exchangeInstagram(ctx context.Context, code string) (*transfer.OAuthToken, error) {
	shortLived, err := s.instagramShortLivedToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}

	longLived, err := s.instagramLongLivedToken(ctx, shortLived)
	if err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %v", err)
	}

	return longLived, nil
}

func (s *connectService) instagramShortLivedToken(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", s.cfg.FacebookAppID)
	data.Set("client_secret", s.cfg.FacebookAppSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", s.cfg.InstagramRedirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://api.instagram.com/oauth/access_token",
		strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		UserID      int    `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode token response: %v", err)
	}

	return result.AccessToken, nil
}

func (s *connectService) instagramLongLivedToken(ctx context.Context, shortLivedToken string) (*transfer.OAuthToken, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		s.cfg.FacebookAppSecret, shortLivedToken)

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}

	return &transfer.OAuthToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

func getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
