// Package metrics exposes render telemetry to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arran4/quotecard"
)

var _ quotecard.MetricsRecorder = (*Collector)(nil)

// Collector records renderer and HTTP metrics.
type Collector struct {
	renders    *prometheus.CounterVec
	latency    prometheus.Histogram
	fallbacks  *prometheus.CounterVec
	queueDepth prometheus.Gauge
	httpStatus *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotecard_renders_total",
			Help: "Render calls by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quotecard_render_duration_seconds",
			Help:    "Time from request to encoded card.",
			Buckets: prometheus.DefBuckets,
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotecard_fallbacks_total",
			Help: "Silent degradations such as unreadable favicons.",
		}, []string{"kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quotecard_graphics_queue_depth",
			Help: "Jobs waiting for the graphics worker.",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotecard_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.renders,
		c.latency,
		c.fallbacks,
		c.queueDepth,
		c.httpStatus,
	)

	return c
}

// ObserveRender records a finished render.
func (c *Collector) ObserveRender(outcome, kind string, d time.Duration) {
	c.renders.WithLabelValues(outcome, kind).Inc()
	c.latency.Observe(d.Seconds())
}

// IncFallback counts one silent degradation.
func (c *Collector) IncFallback(kind string) {
	c.fallbacks.WithLabelValues(kind).Inc()
}

// SetQueueDepth sets the graphics queue gauge.
func (c *Collector) SetQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// RecordHTTPStatus counts an HTTP response.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
