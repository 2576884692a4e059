package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type GatewayMetrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	rateLimited   *prometheus.CounterVec
	authFailures  *prometheus.CounterVec
	wsSessions    prometheus.Gauge
	wsEventsSent  prometheus.Counter
	wsDroppedSlow prometheus.Counter
}

var (
	gatewayOnce     sync.Once
	gatewayRegistry *GatewayMetrics
)

func Gateway() *GatewayMetrics {
	gatewayOnce.Do(func() {
		gatewayRegistry = &GatewayMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Count of gateway HTTP requests by route and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Latency distribution of gateway HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			}, []string{"route"}),
			rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "gateway_rate_limited_total",
				Help: "Count of requests rejected by the per-client rate limiter.",
			}, []string{"route"}),
			authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "gateway_auth_failures_total",
				Help: "Count of rejected authentications by reason.",
			}, []string{"reason"}),
			wsSessions: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "gateway_ws_sessions",
				Help: "Number of live websocket event subscribers.",
			}),
			wsEventsSent: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "gateway_ws_events_sent_total",
				Help: "Count of journal entries delivered over websocket sessions.",
			}),
			wsDroppedSlow: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "gateway_ws_dropped_slow_total",
				Help: "Count of websocket sessions dropped for not keeping up.",
			}),
		}
		prometheus.MustRegister(
			gatewayRegistry.requests,
			gatewayRegistry.latency,
			gatewayRegistry.rateLimited,
			gatewayRegistry.authFailures,
			gatewayRegistry.wsSessions,
			gatewayRegistry.wsEventsSent,
			gatewayRegistry.wsDroppedSlow,
		)
	})
	return gatewayRegistry
}

func (m *GatewayMetrics) ObserveRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *GatewayMetrics) ObserveRateLimited(route string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

func (m *GatewayMetrics) ObserveAuthFailure(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.authFailures.WithLabelValues(reason).Inc()
}

func (m *GatewayMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.wsSessions.Inc()
}

func (m *GatewayMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.wsSessions.Dec()
}

func (m *GatewayMetrics) EventDelivered() {
	if m == nil {
		return
	}
	m.wsEventsSent.Inc()
}

func (m *GatewayMetrics) SessionDroppedSlow() {
	if m == nil {
		return
	}
	m.wsDroppedSlow.Inc()
}
