package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rawg-mcp-server/internal/domain"
)

// NewMetricsRegistry returns a registry with the process and Go runtime
// collectors already registered.
func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

// PrometheusMetrics records upstream, rate limiter and tool call metrics
// as Prometheus collectors.
type PrometheusMetrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	rateLimitWait    prometheus.Histogram
	toolCalls        *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the collectors with registerer, or with the
// default registerer when nil. Registering twice on one registerer panics.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rawg_mcp_upstream_requests_total",
				Help: "Total number of RAWG API requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rawg_mcp_upstream_duration_seconds",
				Help:    "Duration of RAWG API requests in seconds, including rate limit waits",
				Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
			},
			[]string{"operation"},
		),
		rateLimitWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rawg_mcp_rate_limit_wait_seconds",
				Help:    "Time spent waiting for the global rate limiter in seconds",
				Buckets: []float64{0, .1, .25, .5, 1, 2, 5, 10},
			},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rawg_mcp_tool_calls_total",
				Help: "Total number of tool calls by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rawg_mcp_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"tool"},
		),
	}
}

// ObserveUpstream counts one RAWG request and records its duration.
func (p *PrometheusMetrics) ObserveUpstream(operation string, outcome string, duration time.Duration) {
	p.upstreamRequests.WithLabelValues(operation, outcome).Inc()
	p.upstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRateLimitWait records how long a request waited for a limiter token.
func (p *PrometheusMetrics) ObserveRateLimitWait(duration time.Duration) {
	p.rateLimitWait.Observe(duration.Seconds())
}

// ObserveToolCall counts one tool call and records its duration.
func (p *PrometheusMetrics) ObserveToolCall(tool string, outcome string, duration time.Duration) {
	p.toolCalls.WithLabelValues(tool, outcome).Inc()
	p.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
