package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neos-mentors/mentor-queue/internal/config"
)

func newThrottledApp(t *testing.T, cfg config.ThrottleConfig) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	app := fiber.New()
	app.Use(errorHandlingMiddleware(zap.NewNop(), nil))
	app.Post("/api/tickets", Throttle(client, zap.NewNop(), cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app, mr
}

func TestThrottle_AllowsWithinLimit(t *testing.T) {
	app, _ := newThrottledApp(t, config.ThrottleConfig{Limit: 3, WindowSeconds: 60})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
}

func TestThrottle_RejectsOverLimit(t *testing.T) {
	app, _ := newThrottledApp(t, config.ThrottleConfig{Limit: 2, WindowSeconds: 60})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestThrottle_WindowResets(t *testing.T) {
	app, mr := newThrottledApp(t, config.ThrottleConfig{Limit: 1, WindowSeconds: 30})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	mr.FastForward(31 * time.Second)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestThrottle_DisabledWithoutLimit(t *testing.T) {
	app, _ := newThrottledApp(t, config.ThrottleConfig{Limit: 0, WindowSeconds: 60})

	for i := 0; i < 10; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
}
