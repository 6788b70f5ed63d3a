// Package metrics holds the Prometheus collectors for reservation activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Reservations     *prometheus.CounterVec // by event: reserved, parked, vacated, cancelled
	AllocationErrors *prometheus.CounterVec // by reason
	AllocationRetry  prometheus.Counter
	RevenueBilled    prometheus.Counter
	LotOperations    *prometheus.CounterVec // by operation
}

// New builds a registry with Go runtime collectors and the service metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Reservations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_reservation_events_total",
			Help: "Reservation state changes, by event.",
		}, []string{"event"}),
		AllocationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_allocation_failures_total",
			Help: "Bookings that could not be allocated a spot, by reason.",
		}, []string{"reason"}),
		AllocationRetry: factory.NewCounter(prometheus.CounterOpts{
			Name: "parking_allocation_retries_total",
			Help: "Allocation attempts retried after a concurrent modification.",
		}),
		RevenueBilled: factory.NewCounter(prometheus.CounterOpts{
			Name: "parking_revenue_billed_total",
			Help: "Sum of costs billed on vacate.",
		}),
		LotOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_lot_operations_total",
			Help: "Successful lot lifecycle operations, by operation.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
