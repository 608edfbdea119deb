package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehq/backflow/internal/models"
)

type fakePublisher struct{}

func (fakePublisher) IsConnected(acc *models.ChannelAccount) bool { return true }

func (fakePublisher) Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*Result, error) {
	return &Result{URL: "https://example.com/post", ID: "1"}, nil
}

func TestRegistryResolvesRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register(models.ChannelFacebookPage, fakePublisher{})

	p := r.Resolve(models.ChannelFacebookPage)
	assert.True(t, p.IsConnected(&models.ChannelAccount{}))
}

func TestNoopPublisherFabricatesResult(t *testing.T) {
	r := NewRegistry()
	r.Register("nextdoor", Noop{Key: "nextdoor"})

	p := r.Resolve("nextdoor")
	assert.True(t, p.IsConnected(&models.ChannelAccount{}))

	result, err := p.Publish(context.Background(), "caption", nil, &models.ChannelAccount{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "nextdoor-noop-7", result.ID)
}

func TestRegistryUnknownChannelRefusesToPublish(t *testing.T) {
	r := NewRegistry()

	p := r.Resolve("nextdoor")
	assert.False(t, p.IsConnected(&models.ChannelAccount{Connected: true}))

	_, err := p.Publish(context.Background(), "caption", nil, &models.ChannelAccount{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported for channel nextdoor")
}
