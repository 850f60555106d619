package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/buscacep/internal/address"
	"github.com/dukerupert/buscacep/internal/domain"
	"github.com/dukerupert/buscacep/internal/telemetry"
)

func newTestHandler(t *testing.T, lookuper address.Lookuper) *LookupHandler {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)
	return NewLookupHandler(LookupConfig{Lookuper: lookuper, Renderer: renderer})
}

func postForm(cep string) *http.Request {
	form := url.Values{"cep": {cep}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNewRenderer_UnknownTemplate(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	err = renderer.Render(&strings.Builder{}, "missing", nil)
	assert.ErrorContains(t, err, `template "missing" not found`)
}

func TestLookupHandler_Page(t *testing.T) {
	mock := address.NewMockLookuper()
	h := newTestHandler(t, mock)

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/?cep=01310", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Buscador de CEP")
	assert.Contains(t, body, `value="01310"`)
	assert.NotContains(t, body, "Endereço Encontrado")
	assert.Empty(t, mock.Calls(), "rendering the page must not query the registry")
}

func TestLookupHandler_Submit_Found(t *testing.T) {
	mock := address.NewMockLookuper()
	h := newTestHandler(t, mock)

	rec := httptest.NewRecorder()
	h.Submit(rec, postForm("01310-100"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Endereço Encontrado")
	assert.Contains(t, body, "Avenida Paulista")
	assert.Contains(t, body, "01310-100")
	assert.Equal(t, []string{"01310100"}, mock.Calls())
}

func TestLookupHandler_Submit_PlaceholderFields(t *testing.T) {
	mock := &address.MockLookuper{
		LookupFunc: func(ctx context.Context, key string) (*address.Address, error) {
			return &address.Address{PostalCode: "69945-000", City: "Acrelândia", StateCode: "AC"}, nil
		},
	}
	h := newTestHandler(t, mock)

	rec := httptest.NewRecorder()
	h.Submit(rec, postForm("69945000"))

	body := rec.Body.String()
	assert.Contains(t, body, "Acrelândia")
	assert.Equal(t, 2, strings.Count(body, "<dd>"+address.Placeholder+"</dd>"))
}

func TestLookupHandler_Submit_Failures(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		lookupErr  error
		wantStatus int
		wantNotice string
		wantCalls  int
	}{
		{
			name:       "too short",
			input:      "123",
			wantStatus: http.StatusBadRequest,
			wantNotice: address.NoticeInvalid,
		},
		{
			name:       "empty",
			input:      "",
			wantStatus: http.StatusBadRequest,
			wantNotice: address.NoticeInvalid,
		},
		{
			name:       "not found",
			input:      "99999-999",
			lookupErr:  address.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantNotice: address.NoticeNotFound,
			wantCalls:  1,
		},
		{
			name:       "transport",
			input:      "01310100",
			lookupErr:  errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusBadGateway,
			wantNotice: address.NoticeTransport,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &address.MockLookuper{
				LookupFunc: func(ctx context.Context, key string) (*address.Address, error) {
					return nil, tt.lookupErr
				},
			}
			h := newTestHandler(t, mock)

			rec := httptest.NewRecorder()
			h.Submit(rec, postForm(tt.input))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, tt.wantNotice)
			assert.NotContains(t, body, "Endereço Encontrado")
			assert.Len(t, mock.Calls(), tt.wantCalls)
		})
	}
}

func TestLookupHandler_Submit_EscapesInput(t *testing.T) {
	h := newTestHandler(t, address.NewMockLookuper())

	rec := httptest.NewRecorder()
	h.Submit(rec, postForm(`"><script>alert(1)</script>`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func TestLookupHandler_API_Found(t *testing.T) {
	h := newTestHandler(t, address.NewMockLookuper())

	req := httptest.NewRequest(http.MethodGet, "/api/cep/01310100", nil)
	req.SetPathValue("code", "01310100")
	rec := httptest.NewRecorder()

	h.API(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got address.Address
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "01310-100", got.PostalCode)
	assert.Equal(t, "Avenida Paulista", got.Street)
	assert.Equal(t, "SP", got.StateCode)
}

func TestLookupHandler_API_Errors(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		lookupErr  error
		wantStatus int
		wantCode   string
	}{
		{"invalid", "12", nil, http.StatusBadRequest, domain.EINVALID},
		{"not found", "99999999", address.ErrNotFound, http.StatusNotFound, domain.ENOTFOUND},
		{"unavailable", "01310100", errors.New("boom"), http.StatusBadGateway, domain.EUNAVAILABLE},
		{"timeout", "01310100", context.DeadlineExceeded, http.StatusGatewayTimeout, domain.ETIMEOUT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &address.MockLookuper{
				LookupFunc: func(ctx context.Context, key string) (*address.Address, error) {
					return nil, tt.lookupErr
				},
			}
			h := newTestHandler(t, mock)

			req := httptest.NewRequest(http.MethodGet, "/api/cep/"+tt.code, nil)
			req.SetPathValue("code", tt.code)
			rec := httptest.NewRecorder()

			h.API(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestLookupHandler_ReportsTransportErrors(t *testing.T) {
	var reported []error
	mock := &address.MockLookuper{
		LookupFunc: func(ctx context.Context, key string) (*address.Address, error) {
			return nil, errors.New("registry down")
		},
	}
	renderer, err := NewRenderer()
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewLookupMetrics("test", reg)

	h := NewLookupHandler(LookupConfig{
		Lookuper: mock,
		Renderer: renderer,
		Metrics:  metrics,
		Reporter: func(ctx context.Context, err error, extras map[string]any) {
			reported = append(reported, err)
		},
	})

	h.Submit(httptest.NewRecorder(), postForm("01310100"))

	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], address.ErrTransport)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Submissions.WithLabelValues(telemetry.OutcomeTransport)))
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("v1.2.3").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "v1.2.3", body.Version)
}
