package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(outboxDeliveredTotal, outboxPending) }

var (
	outboxDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_published_total",
			Help: "Outbox delivery attempts by message kind and result.",
		},
		[]string{"kind", "result"}, // result: sent, deferred, failed
	)

	outboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_pending",
			Help: "Outbox messages not yet delivered.",
		},
	)
)

func IncOutboxDelivery(kind, result string) {
	outboxDeliveredTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}

func SetOutboxPending(n int) {
	outboxPending.Set(float64(n))
}
