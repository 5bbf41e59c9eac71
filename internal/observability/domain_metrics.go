package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gradelens_pipeline_runs_total",
			Help: "Total number of pipeline runs started.",
		},
	)
	pipelineFallbackRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gradelens_pipeline_fallback_runs_total",
			Help: "Total number of pipeline runs answered by the credential-less fallback rules.",
		},
	)
	pipelineStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gradelens_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)
	pipelineStageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradelens_pipeline_stage_failures_total",
			Help: "Total number of pipeline stage failures.",
		},
		[]string{"stage"},
	)
	explanationDowngradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gradelens_explanation_downgrades_total",
			Help: "Total number of explanations downgraded to a diagnostic string.",
		},
	)
	executedRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gradelens_executed_rows",
			Help:    "Row counts returned by executed SQL statements.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 200, 500, 1000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRunsTotal,
		pipelineFallbackRunsTotal,
		pipelineStageDurationSeconds,
		pipelineStageFailuresTotal,
		explanationDowngradesTotal,
		executedRows,
	)
}

func ObservePipelineRun(fallback bool) {
	pipelineRunsTotal.Inc()
	if fallback {
		pipelineFallbackRunsTotal.Inc()
	}
}

func ObserveStage(stage string, elapsed time.Duration, err error) {
	pipelineStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		pipelineStageFailuresTotal.WithLabelValues(stage).Inc()
	}
}

func IncrementExplanationDowngrade() {
	explanationDowngradesTotal.Inc()
}

func ObserveExecutedRows(count int) {
	if count < 0 {
		count = 0
	}
	executedRows.Observe(float64(count))
}
