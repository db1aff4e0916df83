package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text2sql_api_requests_total",
			Help: "Total number of API requests by matched route and status code.",
		},
		[]string{"route", "status"},
	)
	apiRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "text2sql_api_request_duration_seconds",
			Help:    "API request latency by matched route. Ask requests include the model call.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"route"},
	)
	apiRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "text2sql_api_requests_in_flight",
			Help: "Number of API requests currently being served.",
		},
	)

	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text2sql_pipeline_runs_total",
			Help: "Total number of pipeline runs by final outcome.",
		},
		[]string{"outcome"},
	)
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "text2sql_stage_duration_seconds",
			Help:    "Pipeline stage latency by stage and status.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage", "status"},
	)
	resultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "text2sql_result_rows",
			Help:    "Number of rows returned by executed statements.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
		},
	)
	archiveFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "text2sql_archive_failures_total",
			Help: "Total number of runs that could not be archived.",
		},
	)
	archiveObjectsPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "text2sql_archive_objects_pruned_total",
			Help: "Total number of archived objects deleted by retention runs.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDurationSeconds,
		apiRequestsInFlight,
		pipelineRunsTotal,
		stageDurationSeconds,
		resultRows,
		archiveFailuresTotal,
		archiveObjectsPrunedTotal,
	)
}

func ObserveAPIRequest(route string, status int, elapsed time.Duration) {
	apiRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	apiRequestDurationSeconds.WithLabelValues(route).Observe(elapsed.Seconds())
}

func ObservePipelineRun(outcome string) {
	pipelineRunsTotal.WithLabelValues(outcome).Inc()
}

func ObserveStage(stage string, failed bool, elapsed time.Duration) {
	status := "ok"
	if failed {
		status = "error"
	}
	stageDurationSeconds.WithLabelValues(stage, status).Observe(elapsed.Seconds())
}

func ObserveResultRows(rows int) {
	if rows < 0 {
		rows = 0
	}
	resultRows.Observe(float64(rows))
}

func IncrementArchiveFailures() {
	archiveFailuresTotal.Inc()
}

func AddArchiveObjectsPruned(count int) {
	if count > 0 {
		archiveObjectsPrunedTotal.Add(float64(count))
	}
}
