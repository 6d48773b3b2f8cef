package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts orders placed since process start.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deliverus_orders_created_total",
		Help: "Number of orders placed.",
	})

	// TransitionsApplied counts successful status transitions by direction.
	TransitionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deliverus_order_transitions_total",
		Help: "Number of applied order status transitions.",
	}, []string{"direction", "to_status"})

	// TransitionsRejected counts transition attempts denied by the engine.
	TransitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deliverus_order_transitions_rejected_total",
		Help: "Number of rejected order status transitions.",
	}, []string{"direction", "reason"})
)
