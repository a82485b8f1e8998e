package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derHeinz/dlna-mediacontroller/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Host:                     "127.0.0.1",
		Port:                     "0",
		DiscoveryIntervalSeconds: 300,
		DiscoveryTimeoutMs:       100,
		PollIntervalSeconds:      3600,
		SOAPTimeoutMs:            1000,
		AuditEnabled:             false,
		AuthEnabled:              false,
	}
}

func TestHealthRoutes(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "dlna-mediacontroller", body["service"])
}

func TestInfoRouteWithNoRenderers(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(0), body["ws_subscribers"])
	assert.Empty(t, body["renderers"])
}

func TestPlayWithNoRenderersConfiguredFails(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/play", "application/json", strings.NewReader(`{"url":"http://example.com/stream.mp3"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errBody["message"], "no renderers configured")
}

func TestStateReturnsEmptyListWhenNothingHasPlayed(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state?target=kitchen")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Empty(t, entries, "no integrator has been materialized yet, and the target is unknown")
}

func TestPlayMalformedBodyIsRequestInvalid(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/play", "application/json", strings.NewReader(`{not json`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketRouteUpgrades(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ws/state", nil)
	require.NoError(t, err)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
}
