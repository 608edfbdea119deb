package publisher

import (
	"context"
	"fmt"

	"github.com/tradehq/backflow/internal/models"
)

// Result describes a successfully published post.
type Result struct {
	URL string
	ID  string
}

// Publisher pushes a caption plus media to one channel type.
type Publisher interface {
	IsConnected(acc *models.ChannelAccount) bool
	Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*Result, error)
}

// Registry maps channel keys to publishers. Unknown keys resolve to a
// publisher that refuses to post, so the dispatcher fails the job instead
// of panicking.
type Registry struct {
	byKey map[string]Publisher
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Publisher)}
}

func (r *Registry) Register(channelKey string, p Publisher) {
	r.byKey[channelKey] = p
}

func (r *Registry) Resolve(channelKey string) Publisher {
	if p, ok := r.byKey[channelKey]; ok {
		return p
	}
	return unsupported{key: channelKey}
}

// Noop reports connected and fabricates a result without calling any
// provider. Register it for channels under development or in test setups.
type Noop struct {
	Key string
}

func (n Noop) IsConnected(acc *models.ChannelAccount) bool {
	return true
}

func (n Noop) Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*Result, error) {
	return &Result{ID: fmt.Sprintf("%s-noop-%d", n.Key, acc.ID)}, nil
}

type unsupported struct {
	key string
}

func (u unsupported) IsConnected(acc *models.ChannelAccount) bool {
	return false
}

func (u unsupported) Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*Result, error) {
	return nil, fmt.Errorf("automatic publishing is not supported for channel %s", u.key)
}
