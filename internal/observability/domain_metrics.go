package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StageTranslate = "translate"
	StageValidate  = "validate"
	StageExecute   = "execute"
)

var (
	queryRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datawhisper_query_requests_total",
			Help: "Total number of natural-language query requests.",
		},
	)
	queryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datawhisper_query_failures_total",
			Help: "Failed query requests by pipeline stage.",
		},
		[]string{"stage"},
	)
	translationLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datawhisper_translation_latency_ms",
			Help:    "Latency of the language model translation call in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		},
	)
	queryExecutionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datawhisper_query_execution_latency_ms",
			Help:    "Latency of translated SQL execution in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)
	queryResultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datawhisper_query_result_rows",
			Help:    "Number of rows returned per successful query.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		queryRequestsTotal,
		queryFailuresTotal,
		translationLatencyMs,
		queryExecutionLatencyMs,
		queryResultRows,
	)
}

func IncrementQueryRequests() {
	queryRequestsTotal.Inc()
}

func IncrementQueryFailure(stage string) {
	queryFailuresTotal.WithLabelValues(stage).Inc()
}

func ObserveTranslation(elapsed time.Duration) {
	translationLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveQueryExecution(rows int, elapsed time.Duration) {
	if rows < 0 {
		rows = 0
	}
	queryExecutionLatencyMs.Observe(float64(elapsed.Milliseconds()))
	queryResultRows.Observe(float64(rows))
}
