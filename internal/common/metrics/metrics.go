// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_submissions_received_total",
			Help: "Total number of submissions received",
		},
	)

	SubmissionsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_accepted_total",
			Help: "Total number of submissions accepted, by team",
		},
		[]string{"team"},
	)

	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_rejected_total",
			Help: "Total number of submissions rejected, by error code",
		},
		[]string{"error_code"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "intake_submission_duration_seconds",
			Help: "Duration of submission processing in seconds",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "intake_store_operation_duration_seconds",
			Help: "Duration of tabular store operations in seconds",
		},
		[]string{"operation"},
	)

	UniquenessScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "intake_uniqueness_scan_duration_seconds",
			Help: "Duration of the cross-partition identifier scan in seconds",
		},
	)

	PartitionsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_partitions_provisioned_total",
			Help: "Total number of partitions lazily provisioned, by team",
		},
		[]string{"team"},
	)
)
