package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealplan_subscriptions_total",
		Help: "Subscription lifecycle events",
	}, []string{
		"event", // created, cancelled, renewed, rejected
	})

	ordersMaterializedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealplan_orders_materialized_total",
		Help: "Order slots processed by the materializer",
	}, []string{
		"trigger", // subscribe, sweep
		"result",  // created, skipped, failed
	})

	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealplan_sweep_runs_total",
		Help: "Daily sweep runs",
	}, []string{
		"status", // completed, locked, failed
	})

	sweepPassItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealplan_sweep_items_total",
		Help: "Items handled per sweep pass",
	}, []string{
		"pass", // reminders, renewals, orders
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mealplan_sweep_duration_seconds",
		Help:    "Wall time of one daily sweep",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	})

	notificationDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealplan_notification_deliveries_total",
		Help: "Notification deliveries by channel",
	}, []string{
		"channel", // store, push, email
		"status",  // success, failed
	})
)

// RecordSubscriptionEvent records a subscription lifecycle event
func RecordSubscriptionEvent(event string) {
	subscriptionsTotal.WithLabelValues(event).Inc()
}

// RecordMaterializedOrders records the outcome counts of one materializer run
func RecordMaterializedOrders(trigger string, created, skipped, failed int) {
	ordersMaterializedTotal.WithLabelValues(trigger, "created").Add(float64(created))
	ordersMaterializedTotal.WithLabelValues(trigger, "skipped").Add(float64(skipped))
	ordersMaterializedTotal.WithLabelValues(trigger, "failed").Add(float64(failed))
}

// RecordSweep records a finished sweep
func RecordSweep(status string, reminders, renewals, orders int, seconds float64) {
	sweepRunsTotal.WithLabelValues(status).Inc()
	if status != "completed" {
		return
	}
	sweepPassItems.WithLabelValues("reminders").Add(float64(reminders))
	sweepPassItems.WithLabelValues("renewals").Add(float64(renewals))
	sweepPassItems.WithLabelValues("orders").Add(float64(orders))
	sweepDuration.Observe(seconds)
}

// RecordNotificationDelivery records a delivery attempt outcome
func RecordNotificationDelivery(channel, status string) {
	notificationDeliveriesTotal.WithLabelValues(channel, status).Inc()
}
