package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics records per-call metadata for the gateway relay.
type RelayMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	inflight prometheus.Gauge
}

// NewRelayMetrics registers the relay metrics on the provided registerer.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream commerce calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Upstream commerce calls by route and status class.",
	}, []string{"route", "status"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "upstream_inflight_requests",
		Help: "Upstream commerce calls currently in flight.",
	})
	reg.MustRegister(duration, requests, inflight)
	return &RelayMetrics{
		duration: duration,
		requests: requests,
		inflight: inflight,
	}
}

// ObserveCall records one completed upstream call.
func (m *RelayMetrics) ObserveCall(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if m.duration != nil {
		m.duration.WithLabelValues(normalizeLabel(route)).Observe(duration.Seconds())
	}
	if m.requests != nil {
		m.requests.WithLabelValues(normalizeLabel(route), statusClass(status)).Inc()
	}
}

// InflightInc marks one upstream call as started.
func (m *RelayMetrics) InflightInc() {
	if m == nil || m.inflight == nil {
		return
	}
	m.inflight.Inc()
}

// InflightDec marks one upstream call as finished.
func (m *RelayMetrics) InflightDec() {
	if m == nil || m.inflight == nil {
		return
	}
	m.inflight.Dec()
}

func normalizeLabel(route string) string {
	if route == "" {
		return "unknown"
	}
	return route
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "error"
	}
}
