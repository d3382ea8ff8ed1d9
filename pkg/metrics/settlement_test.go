package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSettlementMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSettlementMetrics(reg)

	metrics.IncSettlement("STRIPE", "PAID")
	metrics.IncSettlement("STRIPE", "PAID")
	metrics.IncDuplicate("MERCADOPAGO")
	metrics.IncTransition("APROVADO")
	metrics.ObserveWebhookDuration("STRIPE", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "settlements_total", "provider", "STRIPE"); err != nil {
		t.Fatalf("fetch settlements: %v", err)
	} else if got != 2 {
		t.Fatalf("expected settlements=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "duplicate_events_total", "provider", "MERCADOPAGO"); err != nil {
		t.Fatalf("fetch duplicates: %v", err)
	} else if got != 1 {
		t.Fatalf("expected duplicates=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "withdrawal_transitions_total", "to_status", "APROVADO"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transitions=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "webhook_duration_seconds", "provider", "STRIPE"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	metrics := NewSettlementMetrics(nil)
	metrics.IncSettlement("STRIPE", "PAID")
	metrics.IncDuplicate("STRIPE")
	metrics.IncTransition("PAGO")
	metrics.ObserveWebhookDuration("STRIPE", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
