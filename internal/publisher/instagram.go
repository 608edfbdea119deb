package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/pkg/utils"
)

const instagramGraphBase = "https://graph.instagram.com/v21.0"

type instagramPublisher struct {
	cfg *config.Config
}

// NewInstagramPublisher posts to an Instagram business account using the
// two-step container flow: create a media container, then publish it.
func NewInstagramPublisher(cfg *config.Config) Publisher {
	return &instagramPublisher{cfg: cfg}
}

func (p *instagramPublisher) IsConnected(acc *models.ChannelAccount) bool {
	return acc.Connected && acc.OAuthTokenRef != "" && acc.ExternalID != ""
}

func (p *instagramPublisher) Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*Result, error) {
	if len(mediaURLs) == 0 {
		return nil, fmt.Errorf("instagram posts require at least one image")
	}

	tok, err := utils.DecodeTokenRef(acc.OAuthTokenRef, []byte(p.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	accessToken := tok.AccessToken

	var containerID string
	if len(mediaURLs) == 1 {
		containerID, err = p.createContainer(ctx, acc.ExternalID, map[string]interface{}{
			"image_url":    mediaURLs[0],
			"caption":      caption,
			"access_token": accessToken,
		})
		if err != nil {
			return nil, err
		}
	} else {
		children := make([]string, 0, len(mediaURLs))
		for _, mediaURL := range mediaURLs {
			childID, err := p.createContainer(ctx, acc.ExternalID, map[string]interface{}{
				"image_url":        mediaURL,
				"is_carousel_item": true,
				"access_token":     accessToken,
			})
			if err != nil {
				return nil, err
			}
			children = append(children, childID)
		}

		containerID, err = p.createContainer(ctx, acc.ExternalID, map[string]interface{}{
			"media_type":   "CAROUSEL",
			"caption":      caption,
			"children":     children,
			"access_token": accessToken,
		})
		if err != nil {
			return nil, err
		}
	}

	mediaID, err := p.publishContainer(ctx, acc.ExternalID, containerID, accessToken)
	if err != nil {
		return nil, err
	}

	permalink, err := p.getPermalink(ctx, mediaID, accessToken)
	if err != nil {
		// The post went out; a missing permalink is not worth failing over.
		permalink = fmt.Sprintf("https://www.instagram.com/%s", acc.Name)
	}

	return &Result{ID: mediaID, URL: permalink}, nil
}

func (p *instagramPublisher) createContainer(ctx context.Context, accountID string, payload map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/media", instagramGraphBase, accountID)
	id, err := graphPost(ctx, url, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create media container: %w", err)
	}
	return id, nil
}

func (p *instagramPublisher) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	url := fmt.Sprintf("%s/%s/media_publish", instagramGraphBase, accountID)
	id, err := graphPost(ctx, url, map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish media container: %w", err)
	}
	return id, nil
}

func (p *instagramPublisher) getPermalink(ctx context.Context, mediaID, accessToken string) (string, error) {
	url := fmt.Sprintf("%s/%s?fields=permalink&access_token=%s", instagramGraphBase, mediaID, accessToken)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		Permalink string `json:"permalink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Permalink, nil
}
