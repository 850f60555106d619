package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/buscacep/internal/address"
	"github.com/dukerupert/buscacep/internal/handler"
	"github.com/dukerupert/buscacep/internal/middleware"
	"github.com/dukerupert/buscacep/internal/router"
	"github.com/dukerupert/buscacep/internal/telemetry"
)

func newTestServer(t *testing.T) (*httptest.Server, *address.MockLookuper) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics("test", reg)

	renderer, err := handler.NewRenderer()
	require.NoError(t, err)

	mock := address.NewMockLookuper()
	lookup := handler.NewLookupHandler(handler.LookupConfig{
		Lookuper: mock,
		Renderer: renderer,
		Metrics:  telemetry.NewLookupMetrics("test", reg),
	})

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.WithRequestLogger(logger),
	)
	RegisterOpsRoutes(r, OpsDeps{Health: handler.NewHealthHandler("test"), Metrics: httpMetrics.Handler()})
	RegisterLookupRoutes(r, LookupDeps{Handler: lookup})
	RegisterAPIRoutes(r, APIDeps{Handler: lookup, AllowedOrigins: []string{"https://app.example"}})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mock
}

func TestRoutes_LookupScreen(t *testing.T) {
	srv, mock := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, err = http.PostForm(srv.URL+"/", url.Values{"cep": {"01310-100"}})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Avenida Paulista")
	assert.Equal(t, []string{"01310100"}, mock.Calls())
}

func TestRoutes_UnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_API(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/cep/01310100", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, string(body), `"logradouro":"Avenida Paulista"`)
}

func TestRoutes_APIPreflight(t *testing.T) {
	srv, mock := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/cep/01310100", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodGet)
	assert.Empty(t, mock.Calls())
}

func TestRoutes_APIInvalid(t *testing.T) {
	srv, mock := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/cep/123")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"invalid"`)
	assert.Empty(t, mock.Calls())
}

func TestRoutes_Ops(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/cep/01310100")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	metrics := string(body)
	assert.Contains(t, metrics, `test_lookup_submissions_total{outcome="found"} 1`)
	assert.Contains(t, metrics, `path="/api/cep/{code}"`)
}
