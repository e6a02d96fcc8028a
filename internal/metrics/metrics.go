// Package metrics defines the Prometheus collectors exported by the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "deepchat"

// Gateway outcomes used as the "outcome" label.
const (
	OutcomeSuccess         = "success"
	OutcomeCacheHit        = "cache_hit"
	OutcomeRateLimited     = "rate_limited"
	OutcomeServerError     = "server_error"
	OutcomeParseError      = "parse_error"
	OutcomeUnexpectedShape = "unexpected_shape"
	OutcomeTransportError  = "transport_error"
	OutcomeUnexpected      = "unexpected"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	GatewayRequests *prometheus.CounterVec
	GatewayRetries  prometheus.Counter
	GatewayLatency  prometheus.Histogram

	CacheEntries prometheus.Gauge
	TrackedUsers prometheus.Gauge

	Updates   *prometheus.CounterVec
	TaskRuns  *prometheus.CounterVec
	ImageRuns *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		GatewayRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Completion requests by outcome.",
		}, []string{"outcome"}),
		GatewayRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Retries performed after transport failures.",
		}),
		GatewayLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of GenerateResponse calls that reached the network.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
		}),

		CacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of cached completions.",
		}),
		TrackedUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "tracked_users",
			Help:      "Number of users with a recorded interaction mode.",
		}),

		Updates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "updates_total",
			Help:      "Telegram updates processed by type.",
		}, []string{"type"}),
		TaskRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Scheduled task runs by task and result.",
		}, []string{"task", "result"}),
		ImageRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "image",
			Name:      "requests_total",
			Help:      "Image generation requests by provider and result.",
		}, []string{"provider", "result"}),
	}
}

// ObserveGateway records a gateway outcome. Latency is only recorded when
// the call reached the network.
func (m *Metrics) ObserveGateway(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCacheHit {
		m.GatewayLatency.Observe(d.Seconds())
	}
}

// IncRetry counts one retry.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.GatewayRetries.Inc()
}

// IncUpdate counts one Telegram update of the given type.
func (m *Metrics) IncUpdate(updateType string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(updateType).Inc()
}

// ObserveTask records a scheduled task run.
func (m *Metrics) ObserveTask(task string, err error) {
	if m == nil {
		return
	}
	m.TaskRuns.WithLabelValues(task, result(err)).Inc()
}

// ObserveImage records an image generation call.
func (m *Metrics) ObserveImage(provider string, err error) {
	if m == nil {
		return
	}
	m.ImageRuns.WithLabelValues(provider, result(err)).Inc()
}

// SetSizes updates the cache and tracker gauges.
func (m *Metrics) SetSizes(cacheEntries, trackedUsers int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(cacheEntries))
	m.TrackedUsers.Set(float64(trackedUsers))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
