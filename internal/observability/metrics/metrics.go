package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow and its
// provider calls.
type BookingMetrics struct {
	providerTotal   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	outcomeTotal    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		providerTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowup",
			Subsystem: "booking",
			Name:      "provider_requests_total",
			Help:      "Total Acuity API requests",
		}, []string{"endpoint", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "glowup",
			Subsystem: "booking",
			Name:      "provider_latency_seconds",
			Help:      "Latency of Acuity API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		outcomeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowup",
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Total completed booking submissions by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.providerTotal, m.providerLatency, m.outcomeTotal)
	return m
}

// ObserveProviderCall records one provider round trip. Satisfies the Acuity
// client's observer hook.
func (m *BookingMetrics) ObserveProviderCall(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.providerTotal.WithLabelValues(endpoint, outcome).Inc()
	m.providerLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *BookingMetrics) ObserveBookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomeTotal.WithLabelValues(outcome).Inc()
}
