package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "referral-usage-reconcile"
	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	m.IncFailure(job)
	m.AddAffected(job, 3)
	m.AddAffected(job, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for name, want := range map[string]float64{
		"wgme_cron_job_success_total":   1,
		"wgme_cron_job_failure_total":   1,
		"wgme_cron_rows_affected_total": 3,
	} {
		got, err := fetchCounterValue(mfs, name, "job", job)
		if err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("expected %s=%v, got %f", name, want, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "wgme_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestRecordStoreMetricsCountsByTableAndOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRecordStoreMetrics(reg)
	m.IncError("profiles", "select")
	m.IncError("profiles", "select")
	m.IncError("", "insert")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "wgme_record_store_errors_total", "table", "profiles")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 profile errors, got %f", got)
	}
	if _, err := fetchCounterValue(mfs, "wgme_record_store_errors_total", "table", "unknown"); err != nil {
		t.Fatalf("empty table should be labelled unknown: %v", err)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/v1/me/role", http.MethodGet, http.StatusOK, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "wgme_http_requests_total", "status", "200"); err != nil || got != 1 {
		t.Fatalf("expected one 200 request, got %f (err=%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCronJobMetrics(nil).IncSuccess("x")
	NewRecordStoreMetrics(nil).IncError("t", "o")
	NewHTTPMetrics(nil).Observe("/", http.MethodGet, 200, time.Second)
	var m *CronJobMetrics
	m.ObserveDuration("x", time.Second)
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
