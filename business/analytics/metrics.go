package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	IterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_iterations_total",
			Help: "Count of assessment iterations by outcome.",
		},
		[]string{"outcome"},
	)

	IterationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analytics_iteration_duration_seconds",
		Help:    "Wall time of one assessment iteration, metric fetch included.",
		Buckets: prometheus.DefBuckets,
	})

	DataQualityStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_status_codes_total",
			Help: "Count of data-quality status codes reported in assessment results.",
		},
		[]string{"code"},
	)

	MetricsBackendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_metrics_backend_errors_total",
		Help: "Iterations whose metric fetch failed and carried the previous split forward.",
	})
)

const (
	outcomeOK           = "ok"
	outcomeInvalid      = "invalid_spec"
	outcomeBackendError = "backend_error"
	outcomeCanceled     = "canceled"
	outcomeError        = "error"
)

func init() {
	prometheus.MustRegister(
		IterationsTotal,
		IterationDuration,
		DataQualityStatusTotal,
		MetricsBackendErrorsTotal,
	)
}
