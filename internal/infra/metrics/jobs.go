package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(jobsSubmittedTotal, jobsDeletedTotal, rateLimitTriggeredTotal)
}

var (
	jobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_submitted_total",
			Help: "Submission attempts by request kind and outcome.",
		},
		[]string{"kind", "result"}, // result: accepted, rejected, external_error, failed, rate_limited
	)

	jobsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_deleted_total",
			Help: "Job rows removed by owner requests.",
		},
	)

	rateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_triggered_total",
			Help: "Submissions refused by the per-user rate limit.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncJobSubmitted(kind, result string) {
	jobsSubmittedTotal.WithLabelValues(norm(kind), norm(result)).Inc()
	if result == "rate_limited" {
		rateLimitTriggeredTotal.Inc()
	}
}

func AddJobsDeleted(n int) {
	if n > 0 {
		jobsDeletedTotal.Add(float64(n))
	}
}
