package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/campuslink/campuslink/internal/jobs"
)

func TestJobMetricsThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	// Warm cache runs finish fast and mostly succeed.
	for i := 0; i < 20; i++ {
		tracker := metrics.Track("tabs.warmup")
		time.Sleep(2 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending warm tracker: %v", err)
		}
	}

	// Sweep runs are slower but bounded.
	for i := 0; i < 5; i++ {
		tracker := metrics.Track("organizations.renewal_sweep")
		time.Sleep(5 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending sweep tracker: %v", err)
		}
	}

	// Failures must be counted and the error returned untouched.
	for i := 0; i < 3; i++ {
		tracker := metrics.Track("tabs.warmup")
		if err := tracker.End(errors.New("timeout")); err == nil {
			t.Fatal("expected End to return the error")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(families, "campuslink_jobs_total", map[string]string{"job": "tabs.warmup", "status": "success"}); got != 20 {
		t.Fatalf("expected 20 successful warmups, got %v", got)
	}
	if got := counterValue(families, "campuslink_jobs_failures_total", map[string]string{"job": "tabs.warmup"}); got != 3 {
		t.Fatalf("expected 3 warmup failures, got %v", got)
	}
	if got := counterValue(families, "campuslink_jobs_total", map[string]string{"job": "organizations.renewal_sweep", "status": "success"}); got != 5 {
		t.Fatalf("expected 5 successful sweeps, got %v", got)
	}
}

func counterValue(families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := true
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					matched = false
					break
				}
			}
			if matched {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return -1
}
