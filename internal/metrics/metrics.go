// Package metrics exposes Prometheus collectors for the purchase and
// payment confirmation flows.
package metrics

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Gateway notifications processed, by outcome",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets minted for confirmed payments",
		},
	)

	purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase initiations, by result",
		},
		[]string{"result"},
	)

	notificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_notification_duration_seconds",
			Help:    "Time spent handling a gateway notification",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)
)

// Notification counts one processed notification.  outcome is paid,
// pending, already_paid or the error class that rejected it.
func Notification(outcome string, took time.Duration) {
	notifications.WithLabelValues(outcome).Inc()
	notificationDuration.Observe(took.Seconds())
}

// TicketsIssued adds n freshly minted tickets.
func TicketsIssued(n int) { ticketsIssued.Add(float64(n)) }

// Purchase counts one purchase initiation.
func Purchase(result string) { purchases.WithLabelValues(result).Inc() }

// Handler serves the default registry.
func Handler() echo.HandlerFunc { return echo.WrapHandler(promhttp.Handler()) }
