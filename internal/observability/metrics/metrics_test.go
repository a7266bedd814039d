package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClientMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(reg)
	m.ObserveRequest("PUT", "not_found", 0.2)
	m.ObserveRequest("PUT", "success", 0.1)
	m.ObserveRequest("PUT", "success", 0.3)
	m.ObserveExhausted()

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("PUT", "success")); got != 2 {
		t.Fatalf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.attemptsExhausted); got != 1 {
		t.Fatalf("exhausted count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.requestLatency); got != 1 {
		t.Fatalf("latency series = %d, want 1", got)
	}
}

func TestClientMetricsDefaultRegistry(t *testing.T) {
	m := NewClientMetrics(nil)
	m.ObserveRequest("GET", "success", 0.5)
	prometheus.DefaultRegisterer.Unregister(m.requestsTotal)
	prometheus.DefaultRegisterer.Unregister(m.requestLatency)
	prometheus.DefaultRegisterer.Unregister(m.attemptsExhausted)
}

func TestClientMetricsNilSafe(t *testing.T) {
	var m *ClientMetrics
	m.ObserveRequest("GET", "success", 0.1)
	m.ObserveExhausted()
}
