package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	m := NewBookingMetrics(prometheus.NewRegistry())
	m.ObserveProviderCall("/appointment-types", "ok", 0.12)
	m.ObserveProviderCall("/appointments", "http_error", 0.4)
	m.ObserveBookingOutcome("payment_required")
}

func TestBookingMetricsDefaultRegistry(t *testing.T) {
	m := NewBookingMetrics(nil)
	m.ObserveBookingOutcome("confirmed")
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveProviderCall("/availability/dates", "ok", 0.1)
	m.ObserveBookingOutcome("confirmed")
}
