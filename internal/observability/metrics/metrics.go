package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClientMetrics exposes counters/histograms for outbound Dentago API calls.
type ClientMetrics struct {
	requestsTotal     *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
	attemptsExhausted prometheus.Counter
}

func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentago",
			Subsystem: "apiclient",
			Name:      "requests_total",
			Help:      "Total outbound Dentago API requests by outcome",
		}, []string{"method", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dentago",
			Subsystem: "apiclient",
			Name:      "request_seconds",
			Help:      "Latency of outbound Dentago API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		attemptsExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dentago",
			Subsystem: "apiclient",
			Name:      "attempts_exhausted_total",
			Help:      "Candidate sets where every alternative failed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.attemptsExhausted)
	return m
}

func (m *ClientMetrics) ObserveRequest(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, outcome).Inc()
	m.requestLatency.WithLabelValues(method).Observe(seconds)
}

func (m *ClientMetrics) ObserveExhausted() {
	if m == nil {
		return
	}
	m.attemptsExhausted.Inc()
}
