package observability

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record JSON-RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC module requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC module errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "curio",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Count of module requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit" or
// "quota_exceeded" so dashboards and alerts remain consistent.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// EngineMetrics bundles collectors for the reward accounting engines: mints,
// claims, treasury sweeps, and the carry parked for empty pools.
type EngineMetrics struct {
	mints        *prometheus.CounterVec
	claims       *prometheus.CounterVec
	claimedValue *prometheus.CounterVec
	sweeps       *prometheus.CounterVec
	sweptValue   *prometheus.CounterVec
	carryParked  *prometheus.GaugeVec
	subsCharges  prometheus.Counter
}

// Engine returns the metrics registry for the reward engines.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			mints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "rewards",
				Name:      "mints_total",
				Help:      "Count of minted positions segmented by rarity.",
			}, []string{"rarity"}),
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "rewards",
				Name:      "claims_total",
				Help:      "Count of settled claims segmented by pool kind.",
			}, []string{"pool"}),
			claimedValue: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "rewards",
				Name:      "claimed_value_total",
				Help:      "Total value paid out through claims segmented by pool kind.",
			}, []string{"pool"}),
			sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "treasury",
				Name:      "sweeps_total",
				Help:      "Count of treasury sweeps that moved value, by treasury scope.",
			}, []string{"scope"}),
			sweptValue: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "treasury",
				Name:      "swept_value_total",
				Help:      "Total unlocked value distributed out of treasuries, by treasury scope.",
			}, []string{"scope"}),
			carryParked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "curio",
				Subsystem: "distribution",
				Name:      "carry_parked",
				Help:      "Value parked for pools with no weight, as of the last sweep of each scope.",
			}, []string{"scope", "destination"}),
			subsCharges: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "subscriptions",
				Name:      "charges_total",
				Help:      "Count of subscription payments collected.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.mints,
			engineRegistry.claims,
			engineRegistry.claimedValue,
			engineRegistry.sweeps,
			engineRegistry.sweptValue,
			engineRegistry.carryParked,
			engineRegistry.subsCharges,
		)
	})
	return engineRegistry
}

// RecordMint increments the mint counter for the supplied rarity label.
func (m *EngineMetrics) RecordMint(rarity string) {
	if m == nil {
		return
	}
	m.mints.WithLabelValues(labelOrUnknown(rarity)).Inc()
}

// RecordClaim books one settled claim and its paid value against a pool kind.
func (m *EngineMetrics) RecordClaim(pool string, amount *big.Int) {
	if m == nil {
		return
	}
	label := labelOrUnknown(pool)
	m.claims.WithLabelValues(label).Inc()
	m.claimedValue.WithLabelValues(label).Add(bigToFloat(amount))
}

// RecordSweep books one distributing sweep and the value it moved.
func (m *EngineMetrics) RecordSweep(scope string, distributed *big.Int) {
	if m == nil {
		return
	}
	label := labelOrUnknown(scope)
	m.sweeps.WithLabelValues(label).Inc()
	m.sweptValue.WithLabelValues(label).Add(bigToFloat(distributed))
}

// SetCarryParked updates the parked-carry gauge for a destination.
func (m *EngineMetrics) SetCarryParked(scope, destination string, amount *big.Int) {
	if m == nil {
		return
	}
	m.carryParked.WithLabelValues(labelOrUnknown(scope), labelOrUnknown(destination)).Set(bigToFloat(amount))
}

// RecordSubscriptionCharge increments the subscription payment counter.
func (m *EngineMetrics) RecordSubscriptionCharge() {
	if m == nil {
		return
	}
	m.subsCharges.Inc()
}

func labelOrUnknown(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "unknown"
	}
	return strings.ToLower(trimmed)
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, acc := new(big.Float).SetInt(value).Float64()
	if acc != big.Exact {
		// Guard against NaN/Inf when conversion fails.
		if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
			return 0
		}
	}
	return floatVal
}
