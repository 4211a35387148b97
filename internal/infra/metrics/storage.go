package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(pathResolutionSeconds, storageRequestsTotal) }

var (
	pathResolutionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "path_resolution_seconds",
			Help:    "Latency of the joined input/output path lookup.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"success"},
	)

	storageRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_requests_total",
			Help: "Calls to the storage service by operation and status code.",
		},
		[]string{"op", "code"},
	)
)

func ObservePathResolution(d time.Duration, ok bool) {
	pathResolutionSeconds.WithLabelValues(strconv.FormatBool(ok)).Observe(d.Seconds())
}

// IncStorageRequest records one storage call; code 0 means the request never got a response.
func IncStorageRequest(op string, code int) {
	storageRequestsTotal.WithLabelValues(norm(op), strconv.Itoa(code)).Inc()
}
