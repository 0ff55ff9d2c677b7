package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/meridian-crm/meridian/internal/jobs"
)

func TestBackgroundJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	// WhatsApp sends are quick and mostly succeed.
	for i := 0; i < 60; i++ {
		tracker := metrics.Track("whatsapp_send")
		time.Sleep(5 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending send tracker: %v", err)
		}
	}

	// The nightly renewal scan walks every active contract and is slower.
	for i := 0; i < 5; i++ {
		tracker := metrics.Track("contract_renewal_scan")
		time.Sleep(30 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending scan tracker: %v", err)
		}
	}

	// Inject provider failures to ensure the failure counter moves.
	for i := 0; i < 3; i++ {
		tracker := metrics.Track("whatsapp_send")
		time.Sleep(5 * time.Millisecond)
		if err := tracker.End(errors.New("provider timeout")); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "meridian_jobs_total", map[string]string{"job": "whatsapp_send", "status": "success"})
	failure := metricValue(t, families, "meridian_jobs_total", map[string]string{"job": "whatsapp_send", "status": "failure"})
	if success+failure == 0 {
		t.Fatal("no send executions recorded")
	}
	ratio := success / (success + failure)
	if ratio < 0.9 {
		t.Fatalf("send success ratio too low: %f", ratio)
	}

	scanDuration := histogramMean(t, families, "meridian_job_duration_seconds", map[string]string{"job": "contract_renewal_scan"})
	if scanDuration > 2.0 {
		t.Fatalf("renewal scan duration above budget: %f", scanDuration)
	}

	sendDuration := histogramMean(t, families, "meridian_job_duration_seconds", map[string]string{"job": "whatsapp_send"})
	if sendDuration > 0.5 {
		t.Fatalf("send duration above budget: %f", sendDuration)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
