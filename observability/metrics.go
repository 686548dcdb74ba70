package observability

import (
	"fmt"
	"math/big"
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

type ledgerMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	referrals  *prometheus.CounterVec
	deposited  *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	ledgerMetricsOnce sync.Once
	ledgerRegistry    *ledgerMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record RPC
// module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total RPC requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total RPC errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of RPC requests rejected due to throttling policies.",
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
// reason. Reasons should be stable strings such as "rate_limit" so dashboards
// and alerts remain consistent.
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

// Ledger returns the registry tracking ledger operations.
func Ledger() *ledgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &ledgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations segmented by operation and outcome kind.",
			}, []string{"op", "outcome"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "launchpad",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Time spent executing a ledger operation including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			referrals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "ledger",
				Name:      "referrals_total",
				Help:      "Referral edges written, segmented by source.",
			}, []string{"source"}),
			deposited: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "ledger",
				Name:      "deposited_total",
				Help:      "Deposited token units segmented by deposit token.",
			}, []string{"token"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.duration,
			ledgerRegistry.referrals,
			ledgerRegistry.deposited,
		)
	})
	return ledgerRegistry
}

// ObserveOperation records one ledger call. outcome is "ok" or the stable
// error kind.
func (m *ledgerMetrics) ObserveOperation(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "ok"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *ledgerMetrics) RecordReferral(source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "unknown"
	}
	m.referrals.WithLabelValues(source).Inc()
}

// RecordDeposit adds amount to the per-token volume counter. Float precision
// loss is acceptable for dashboards.
func (m *ledgerMetrics) RecordDeposit(token string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.deposited.WithLabelValues(token).Add(value)
}
