// Package metrics exposes Prometheus collectors for the preview server.
//
// Every Metrics value owns its registry so several servers (or tests) can
// coexist in one process. All methods are no-ops on a nil *Metrics, which
// is what callers hold when metrics are disabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storybridge"

// Metric label constants.
const (
	labelOutcome = "outcome"
	labelRoute   = "route"
	labelCode    = "code"
)

// Metrics holds the storybridge collectors.
type Metrics struct {
	registry *prometheus.Registry

	rendersTotal    *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	components      prometheus.Gauge
	reloadsTotal    prometheus.Counter
	liveClients     prometheus.Gauge
	breakerRejected prometheus.Counter
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Total number of component render dispatches by outcome",
			},
			[]string{labelOutcome},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Duration of component render dispatches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{labelOutcome},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status code",
			},
			[]string{labelRoute, labelCode},
		),
		components: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components_discovered",
			Help:      "Number of components found by the most recent listing",
		}),
		reloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_reloads_total",
			Help:      "Total number of template change notifications",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_reload_clients",
			Help:      "Number of connected live reload websocket clients",
		}),
		breakerRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_breaker_rejections_total",
			Help:      "Total number of client calls rejected by the circuit breaker",
		}),
	}

	m.registry.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.requestsTotal,
		m.components,
		m.reloadsTotal,
		m.liveClients,
		m.breakerRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus text exposition of the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRender records one dispatch.
func (m *Metrics) ObserveRender(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(outcome).Inc()
	m.renderDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveRequest records one HTTP response.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SetComponents records the size of the latest listing.
func (m *Metrics) SetComponents(n int) {
	if m == nil {
		return
	}
	m.components.Set(float64(n))
}

// IncReloads counts a template change notification.
func (m *Metrics) IncReloads() {
	if m == nil {
		return
	}
	m.reloadsTotal.Inc()
}

// SetLiveClients records the number of websocket clients.
func (m *Metrics) SetLiveClients(n int) {
	if m == nil {
		return
	}
	m.liveClients.Set(float64(n))
}

// IncBreakerRejections counts a call short-circuited by an open breaker.
func (m *Metrics) IncBreakerRejections() {
	if m == nil {
		return
	}
	m.breakerRejected.Inc()
}
