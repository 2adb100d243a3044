// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	IncidentNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_notifications_total",
			Help: "Incident notification invocations by final status",
		},
		[]string{"status"},
	)

	PushTargets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_targets_total",
			Help: "Registration tokens addressed by multicast sends",
		},
	)

	PushDeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_delivery_failures_total",
			Help: "Per-token delivery failures by failure class",
		},
		[]string{"classification"},
	)

	PushTokensPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_tokens_pruned_total",
			Help: "Registration tokens cleared from the directory",
		},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "incident_pipeline_duration_seconds",
			Help:    "Duration of one notification pipeline run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)
