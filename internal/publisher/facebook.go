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
)

const facebookGraphBase = "https://graph.facebook.com/v21.0"

type facebookPublisher struct {
	cfg *config.Config
}

// NewFacebookPublisher posts to a Facebook page feed via the Graph API.
func NewFacebookPublisher(cfg *config.Config) Publisher {
	return &facebookPublisher{cfg: cfg}
}

func (p *facebookPublisher) IsConnected(acc *models.ChannelAccount) bool {
	return acc.Connected && acc.OAuthTokenRef != "" && acc.ExternalID != ""
}

func (p *facebookPublisher) Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*Result, error) {
	tok, err := utils.DecodeTokenRef(acc.OAuthTokenRef, []byte(p.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page token: %w", err)
	}

	var (
		url     string
		payload map[string]interface{}
	)
	if len(mediaURLs) > 0 {
		url = fmt.Sprintf("%s/%s/photos", facebookGraphBase, acc.ExternalID)
		payload = map[string]interface{}{
			"url":          mediaURLs[0],
			"caption":      caption,
			"access_token": tok.AccessToken,
		}
	} else {
		url = fmt.Sprintf("%s/%s/feed", facebookGraphBase, acc.ExternalID)
		payload = map[string]interface{}{
			"message":      caption,
			"access_token": tok.AccessToken,
		}
	}

	id, err := graphPost(ctx, url, payload)
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:  id,
		URL: fmt.Sprintf("https://www.facebook.com/%s", id),
	}, nil
}

// graphPost sends a JSON payload to a Graph API endpoint and returns the
// created object ID.
func graphPost(ctx context.Context, url string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Info("graph api error", "status", resp.StatusCode, "body", string(respBody))
		return "", fmt.Errorf("unexpected status code from graph api: %d", resp.StatusCode)
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if result.PostID != "" {
		return result.PostID, nil
	}
	if result.ID == "" {
		return "", fmt.Errorf("no object ID returned from graph api")
	}
	return result.ID, nil
}
