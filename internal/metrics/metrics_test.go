package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRender(t *testing.T) {
	m := New()

	m.ObserveRender("rendered", 5*time.Millisecond)
	m.ObserveRender("rendered", 7*time.Millisecond)
	m.ObserveRender("not_found", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.rendersTotal.WithLabelValues("rendered")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rendersTotal.WithLabelValues("not_found")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.renderDuration))
}

func TestGaugesAndCounters(t *testing.T) {
	m := New()

	m.ObserveRequest("render", 200)
	m.ObserveRequest("render", 200)
	m.ObserveRequest("health", 404)
	m.SetComponents(12)
	m.IncReloads()
	m.SetLiveClients(3)
	m.IncBreakerRejections()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("render", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("health", "404")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.components))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reloadsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.liveClients))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.breakerRejected))
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ObserveRender("rendered", time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(a.rendersTotal.WithLabelValues("rendered")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.rendersTotal.WithLabelValues("rendered")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRender("render_error", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `storybridge_renders_total{outcome="render_error"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRender("rendered", time.Millisecond)
		m.ObserveRequest("render", 200)
		m.SetComponents(1)
		m.IncReloads()
		m.SetLiveClients(1)
		m.IncBreakerRejections()
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
