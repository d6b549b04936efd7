package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	voxnotes = "voxnotes"

	// Pipeline metrics
	jobsProcessedTotal = "jobs_processed_total"
	JobsActiveCount    = "jobs_active_count"
	webhooksTotal      = "webhooks_received_total"

	// Labels
	jobStageLabel      = "stage"
	jobOutcomeLabel    = "outcome"
	webhookResultLabel = "result"
)

var jobsProcessedTotalLabels = []string{
	jobStageLabel,
	jobOutcomeLabel,
}

var webhooksTotalLabels = []string{
	webhookResultLabel,
}

/**
* Metrics definition
**/
var jobsProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: voxnotes,
		Name:      jobsProcessedTotal,
		Help:      "number of pipeline jobs processed, by stage and outcome",
	},
	jobsProcessedTotalLabels,
)

var jobsActiveCountMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: voxnotes,
		Name:      JobsActiveCount,
		Help:      "number of pipeline jobs currently in flight",
	},
)

var webhooksTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: voxnotes,
		Name:      webhooksTotal,
		Help:      "number of transcription webhooks received, by result",
	},
	webhooksTotalLabels,
)

func IncreaseJobsProcessedTotalMetric(stage, outcome string) {
	labels := prometheus.Labels{
		jobStageLabel:   stage,
		jobOutcomeLabel: outcome,
	}
	jobsProcessedTotalMetric.With(labels).Inc()
}

func UpdateJobsActiveCountMetric(count int) {
	jobsActiveCountMetric.Set(float64(count))
}

func IncreaseWebhooksTotalMetric(result string) {
	labels := prometheus.Labels{
		webhookResultLabel: result,
	}
	webhooksTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsProcessedTotalMetric)
	prometheus.MustRegister(jobsActiveCountMetric)
	prometheus.MustRegister(webhooksTotalMetric)
}
