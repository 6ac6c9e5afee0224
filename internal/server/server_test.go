package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyclone-bot/internal/config"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeGateway struct {
	latency time.Duration
}

func (g fakeGateway) Latency() time.Duration { return g.latency }

func newTestServer(cfg *config.Config) *Server {
	return New(cfg, nil, nopLogger{})
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&config.Config{})

	for _, path := range []string{"/", "/health"} {
		res, err := srv.GetApp().Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode, path)
	}
}

func TestHealthReportsGatewayState(t *testing.T) {
	srv := New(&config.Config{}, fakeGateway{latency: 42 * time.Millisecond}, nopLogger{})

	res, err := srv.GetApp().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var payload struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "connected", payload.Data["gateway"])
	assert.EqualValues(t, 42, payload.Data["gateway_latency_ms"])
}

func TestAuthStartRequiresCredentials(t *testing.T) {
	srv := newTestServer(&config.Config{})

	res, err := srv.GetApp().Test(httptest.NewRequest("GET", "/auth", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestAuthStartRedirectsToGoogle(t *testing.T) {
	cfg := &config.Config{}
	cfg.Google.ClientID = "client-id"
	cfg.Google.ClientSecret = "client-secret"
	cfg.Google.RedirectURI = "http://localhost:3000/callback"
	srv := newTestServer(cfg)

	res, err := srv.GetApp().Test(httptest.NewRequest("GET", "/auth", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTemporaryRedirect, res.StatusCode)
	assert.Contains(t, res.Header.Get("Location"), "accounts.google.com")
	assert.Contains(t, res.Header.Get("Location"), "access_type=offline")
}

func TestCallbackRequiresCode(t *testing.T) {
	srv := newTestServer(&config.Config{})

	res, err := srv.GetApp().Test(httptest.NewRequest("GET", "/callback", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}
