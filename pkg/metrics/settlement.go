package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records payment processing and payout activity.
type SettlementMetrics struct {
	settlements *prometheus.CounterVec
	duplicates  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Payment events processed, by provider and outcome.",
	}, []string{"provider", "outcome"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duplicate_events_total",
		Help: "Webhook deliveries skipped as already processed.",
	}, []string{"provider"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawal_transitions_total",
		Help: "Withdrawal state transitions, by target status.",
	}, []string{"to_status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	reg.MustRegister(settlements, duplicates, transitions, duration)
	return &SettlementMetrics{
		settlements: settlements,
		duplicates:  duplicates,
		transitions: transitions,
		duration:    duration,
	}
}

// IncSettlement increments the processed counter for the provider/outcome pair.
func (m *SettlementMetrics) IncSettlement(provider, outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncDuplicate increments the duplicate delivery counter for the provider.
func (m *SettlementMetrics) IncDuplicate(provider string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncTransition increments the withdrawal transition counter for the target status.
func (m *SettlementMetrics) IncTransition(toStatus string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// ObserveWebhookDuration records webhook processing time for the provider.
func (m *SettlementMetrics) ObserveWebhookDuration(provider string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
