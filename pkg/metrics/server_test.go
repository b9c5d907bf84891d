package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_DefaultPort(t *testing.T) {
	assert.Equal(t, 9090, NewServer(ServerConfig{}).Port())
	assert.Equal(t, 9191, NewServer(ServerConfig{Port: 9191}).Port())
}

func TestHandler_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestHandler_MetricsDisabled(t *testing.T) {
	if IsEnabled() {
		t.Skip("registry already initialized in this process")
	}

	rec := httptest.NewRecorder()
	newHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_StopIdempotent(t *testing.T) {
	s := NewServer(ServerConfig{Port: 0})
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
