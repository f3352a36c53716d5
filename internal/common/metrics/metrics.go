// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job lifecycle series, labelled by Zeebe task type.
var (
	WorkerJobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidbuddy",
		Subsystem: "worker",
		Name:      "jobs_completed_total",
		Help:      "Jobs completed successfully.",
	}, []string{"task_type"})

	WorkerJobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidbuddy",
		Subsystem: "worker",
		Name:      "jobs_failed_total",
		Help:      "Jobs failed or thrown as BPMN errors, by error code.",
	}, []string{"task_type", "error_code"})

	WorkerJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bidbuddy",
		Subsystem: "worker",
		Name:      "job_duration_seconds",
		Help:      "Handler wall time from activation to completion.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180},
	}, []string{"task_type"})

	WorkerJobsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bidbuddy",
		Subsystem: "worker",
		Name:      "jobs_active",
		Help:      "Jobs currently inside a handler.",
	}, []string{"task_type"})
)

var (
	ComplianceScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compliance_score",
			Help:    "Compliance scores produced by the scoring engine",
			Buckets: []float64{20, 40, 60, 80, 90, 100, 105},
		},
		[]string{"verdict"},
	)

	ComplianceGaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_gaps_total",
			Help: "Eligibility gaps found, by field and severity",
		},
		[]string{"field", "severity"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Calls to the GenAI gateway, by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "GenAI gateway latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"purpose"},
	)

	TenderExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tender_extractions_total",
			Help: "Tender extraction attempts by resulting status",
		},
		[]string{"status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// ObserveJob records the outcome of one job. An empty errorCode means the job completed.
func ObserveJob(taskType string, start time.Time, errorCode string) {
	if errorCode != "" {
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
		return
	}
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
}
