package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/testutils"
)

func TestObserveLabelsRoutes(t *testing.T) {
	s, err := New(testutils.CreateTestConfig(testutils.CreateViewTree(t, nil)))
	require.NoError(t, err)
	h := s.Handler()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/storybook/health"},
		{http.MethodGet, "/storybook/health"},
		{http.MethodPost, "/storybook/render/components.card"},
		{http.MethodOptions, "/storybook/render/components.card"},
		{http.MethodGet, "/storybook/nothing"},
	} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))
	}

	reg := s.metrics.Registry()
	expected := map[string]float64{
		`storybridge_http_requests_total{code="200",route="health"}`:    2,
		`storybridge_http_requests_total{code="200",route="render"}`:    1,
		`storybridge_http_requests_total{code="200",route="options"}`:   1,
		`storybridge_http_requests_total{code="404",route="unmatched"}`: 1,
	}
	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "storybridge_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			got[`storybridge_http_requests_total{code="`+labels["code"]+`",route="`+labels["route"]+`"}`] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, expected, got)
	renders, err := testutil.GatherAndCount(reg, "storybridge_renders_total")
	require.NoError(t, err)
	assert.Equal(t, 1, renders)
}

func TestRequestIDReachesContext(t *testing.T) {
	s, err := New(testutils.CreateTestConfig(t.TempDir()))
	require.NoError(t, err)

	var seen string
	h := s.withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRecoverPanics(t *testing.T) {
	s, err := New(testutils.CreateTestConfig(t.TempDir()))
	require.NoError(t, err)

	h := s.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusRecorderDefaultsTo200(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, err := rec.Write([]byte("ok"))
	require.NoError(t, err)
	rec.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rec.status)
	assert.NotNil(t, rec.Unwrap())
}

func TestCORSNoOriginHeaderForUnlisted(t *testing.T) {
	cfg := testutils.CreateTestConfig(t.TempDir())
	cfg.CORS.AllowedOrigins = []string{"http://localhost:6006"}
	cfg.CORS.MaxAge = 0
	s, err := New(cfg)
	require.NoError(t, err)

	h := s.cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/storybook/x", nil)
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}
