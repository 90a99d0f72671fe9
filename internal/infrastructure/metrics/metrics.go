package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stkpush"

// PaymentMetrics holds every collector the service exports.
type PaymentMetrics struct {
	// Initiation
	InitiationsTotal     *prometheus.CounterVec
	InitiatedAmountTotal prometheus.Counter
	InitiationDuration   *prometheus.HistogramVec

	// Callbacks and transitions
	CallbacksTotal       *prometheus.CounterVec
	TransitionsTotal     *prometheus.CounterVec
	CompletedAmountTotal prometheus.Counter
	TimeToResolution     *prometheus.HistogramVec

	// Status resolution
	StatusResolutionsTotal *prometheus.CounterVec

	// Gateway
	GatewayRequestDuration *prometheus.HistogramVec
	TokenRefreshesTotal    *prometheus.CounterVec

	// Store
	TransactionsGauge *prometheus.GaugeVec

	// Background
	SweepRunsTotal          *prometheus.CounterVec
	EventPublishErrorsTotal prometheus.Counter
}

// NewPaymentMetrics registers the collectors on reg. Passing nil uses the
// default registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PaymentMetrics{
		InitiationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "initiations_total",
				Help:      "Push initiations by outcome",
			},
			[]string{"outcome"},
		),
		InitiatedAmountTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "initiated_amount_total",
				Help:      "Sum of amounts of pushes accepted by the gateway",
			},
		),
		InitiationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "initiation_duration_seconds",
				Help:      "End to end initiation time including token fetch",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"outcome"},
		),
		CallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callbacks_total",
				Help:      "Gateway callbacks by reconciliation outcome",
			},
			[]string{"outcome"},
		),
		TransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Transactions reaching a terminal status",
			},
			[]string{"status", "source"},
		),
		CompletedAmountTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completed_amount_total",
				Help:      "Sum of amounts of completed transactions",
			},
		),
		TimeToResolution: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "time_to_resolution_seconds",
				Help:      "Time from initiation to terminal status",
				Buckets:   []float64{5, 10, 20, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),
		StatusResolutionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_resolutions_total",
				Help:      "Status lookups by how they were answered",
			},
			[]string{"result"},
		),
		GatewayRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Daraja request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
		TokenRefreshesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Access token fetches by outcome",
			},
			[]string{"outcome"},
		),
		TransactionsGauge: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transactions",
				Help:      "Transactions currently held in the correlation store",
			},
			[]string{"status"},
		),
		SweepRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_runs_total",
				Help:      "Stale pending sweeps by outcome",
			},
			[]string{"outcome"},
		),
		EventPublishErrorsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_publish_errors_total",
				Help:      "Transaction events that could not be published",
			},
		),
	}
}

func (m *PaymentMetrics) RecordInitiation(outcome string, amount float64, took time.Duration) {
	m.InitiationsTotal.WithLabelValues(outcome).Inc()
	m.InitiationDuration.WithLabelValues(outcome).Observe(took.Seconds())
	if outcome == "accepted" {
		m.InitiatedAmountTotal.Add(amount)
	}
}

func (m *PaymentMetrics) RecordCallback(outcome string) {
	m.CallbacksTotal.WithLabelValues(outcome).Inc()
}

// RecordTransition counts a pending record reaching status. A zero
// createdAt skips the resolution histogram (synthesized records).
func (m *PaymentMetrics) RecordTransition(status, source string, amount float64, createdAt time.Time) {
	m.TransitionsTotal.WithLabelValues(status, source).Inc()
	if status == "completed" {
		m.CompletedAmountTotal.Add(amount)
	}
	if !createdAt.IsZero() {
		m.TimeToResolution.WithLabelValues(status).Observe(time.Since(createdAt).Seconds())
	}
}

func (m *PaymentMetrics) RecordStatusResolution(result string) {
	m.StatusResolutionsTotal.WithLabelValues(result).Inc()
}

func (m *PaymentMetrics) RecordGatewayRequest(operation, outcome string, took time.Duration) {
	m.GatewayRequestDuration.WithLabelValues(operation, outcome).Observe(took.Seconds())
}

func (m *PaymentMetrics) RecordTokenRefresh(outcome string) {
	m.TokenRefreshesTotal.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) SetStoreStats(pending, completed, failed int) {
	m.TransactionsGauge.WithLabelValues("pending").Set(float64(pending))
	m.TransactionsGauge.WithLabelValues("completed").Set(float64(completed))
	m.TransactionsGauge.WithLabelValues("failed").Set(float64(failed))
}

func (m *PaymentMetrics) RecordSweep(outcome string) {
	m.SweepRunsTotal.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) RecordPublishError() {
	m.EventPublishErrorsTotal.Inc()
}
