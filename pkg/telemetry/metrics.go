package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the maintenance engine.
type Metrics struct {
	config MetricsConfig

	// Work order lifecycle metrics
	ordersCreated     *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	successorsSpawned prometheus.Counter

	// Validation metrics
	validationFailures *prometheus.CounterVec

	// Analytics metrics
	reportDuration *prometheus.HistogramVec

	// Policy metrics
	policyDenials *prometheus.CounterVec

	// System metrics
	openOrders *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Total number of work orders created",
			},
			[]string{"type"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of work order transitions applied",
			},
			[]string{"action", "status"},
		),
		successorsSpawned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "successors_spawned_total",
				Help:      "Total number of recurring successor orders spawned",
			},
		),

		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of rejected transitions by rule",
			},
			[]string{"rule"},
		),

		reportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Duration of analytics report evaluation in seconds",
				Buckets:   buckets,
			},
			[]string{"report"},
		),

		policyDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_denials_total",
				Help:      "Total number of authorization denials by policy",
			},
			[]string{"policy"},
		),

		openOrders: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_orders",
				Help:      "Current number of open work orders by status",
			},
			[]string{"status"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.ordersCreated,
		m.transitions,
		m.successorsSpawned,
		m.validationFailures,
		m.reportDuration,
		m.policyDenials,
		m.openOrders,
	)

	return m, nil
}

// RecordOrderCreated increments the counter for created work orders.
func (m *Metrics) RecordOrderCreated(orderType string) {
	if m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(orderType).Inc()
}

// RecordTransition records an applied transition and its resulting status.
func (m *Metrics) RecordTransition(action, status string) {
	if m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(action, status).Inc()
}

// RecordSuccessorSpawned increments the counter for spawned successors.
func (m *Metrics) RecordSuccessorSpawned() {
	if m.successorsSpawned == nil {
		return
	}
	m.successorsSpawned.Inc()
}

// RecordValidationFailure records a rejected transition by rule.
func (m *Metrics) RecordValidationFailure(rule string) {
	if m.validationFailures == nil {
		return
	}
	m.validationFailures.WithLabelValues(rule).Inc()
}

// RecordReportDuration records how long an analytics report took to evaluate.
func (m *Metrics) RecordReportDuration(report string, duration time.Duration) {
	if m.reportDuration == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(duration.Seconds())
}

// RecordPolicyDenial records an authorization denial by policy name.
func (m *Metrics) RecordPolicyDenial(policy string) {
	if m.policyDenials == nil {
		return
	}
	m.policyDenials.WithLabelValues(policy).Inc()
}

// SetOpenOrders sets the current number of open orders for a status.
func (m *Metrics) SetOpenOrders(status string, count float64) {
	if m.openOrders == nil {
		return
	}
	m.openOrders.WithLabelValues(status).Set(count)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
