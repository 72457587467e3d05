package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eshop"

// Order placement outcomes.
const (
	OutcomePlaced            = "placed"
	OutcomeInvalid           = "invalid"
	OutcomeMissingProducts   = "missing_products"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomePaymentFailed     = "payment_failed"
	OutcomeError             = "error"
)

type Metrics struct {
	OrderPlacements *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
	EventQueueDepth prometheus.Gauge
}

// CreateMetrics builds the collectors and registers them on reg. A nil registerer leaves them
// unregistered, which tests rely on.
func CreateMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrderPlacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_placements_total",
			Help:      "Order placement attempts by outcome.",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Outbound events by result.",
		}, []string{"result"}),
		EventQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_queue_depth",
			Help:      "Events waiting for the publisher.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.OrderPlacements, m.EventsPublished, m.EventQueueDepth)
	}

	return m
}
