package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const gbpPostsBase = "https://mybusiness.googleapis.com/v4"

type gbpPublisher struct {
	cfg *config.Config
}

// NewGBPPublisher creates local posts on a Google Business Profile
// location. The account's external ID carries the full location resource
// name (accounts/{account}/locations/{location}).
func NewGBPPublisher(cfg *config.Config) Publisher {
	return &gbpPublisher{cfg: cfg}
}

func (p *gbpPublisher) IsConnected(acc *models.ChannelAccount) bool {
	return acc.Connected && acc.OAuthTokenRef != "" && acc.ExternalID != ""
}

func (p *gbpPublisher) Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*Result, error) {
	client, err := p.client(ctx, acc)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"languageCode": "en-US",
		"topicType":    "STANDARD",
		"summary":      caption,
	}
	if len(mediaURLs) > 0 {
		media := make([]map[string]string, 0, len(mediaURLs))
		for _, u := range mediaURLs {
			media = append(media, map[string]string{
				"mediaFormat": "PHOTO",
				"sourceUrl":   u,
			})
		}
		payload["media"] = media
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/localPosts", gbpPostsBase, acc.ExternalID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Info("local post error", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("unexpected status code from business profile api: %d", resp.StatusCode)
	}

	var result struct {
		Name      string `json:"name"`
		SearchURL string `json:"searchUrl"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if result.Name == "" {
		return nil, fmt.Errorf("no local post name returned")
	}

	return &Result{ID: result.Name, URL: result.SearchURL}, nil
}

// client builds an HTTP client whose token source refreshes the stored
// grant when the access token has expired.
func (p *gbpPublisher) client(ctx context.Context, acc *models.ChannelAccount) (*http.Client, error) {
	tok, err := utils.DecodeTokenRef(acc.OAuthTokenRef, []byte(p.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     p.cfg.GoogleClientID,
		ClientSecret: p.cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/business.manage"},
		Endpoint:     google.Endpoint,
	}

	return conf.Client(ctx, &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.ExpiresAt,
	}), nil
}
