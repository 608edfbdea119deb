package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/service"
)

type seedAccountStub struct {
	service.AccountService

	seeded int
}

func (s *seedAccountStub) SeedChannels(ctx context.Context) (int, error) {
	s.seeded++
	return 6, nil
}

func seedApp(secret string) (*fiber.App, *seedAccountStub) {
	as := &seedAccountStub{}
	h := NewMarketingHandler(&config.Config{MarketingSeedSecret: secret}, nil, nil, nil, as)

	app := fiber.New()
	app.Post("/marketing/channels/seed", h.SeedChannels)
	return app, as
}

func TestSeedChannelsRejectsWrongSecret(t *testing.T) {
	app, as := seedApp("s3cret")

	resp, err := app.Test(httptest.NewRequest("POST", "/marketing/channels/seed?secret=nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, as.seeded)
}

func TestSeedChannelsAcceptsMatchingSecret(t *testing.T) {
	app, as := seedApp("s3cret")

	resp, err := app.Test(httptest.NewRequest("POST", "/marketing/channels/seed?secret=s3cret", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, as.seeded)
}

func TestSeedChannelsOpenWhenSecretUnset(t *testing.T) {
	app, as := seedApp("")

	resp, err := app.Test(httptest.NewRequest("POST", "/marketing/channels/seed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, as.seeded)
}
