// Package metrics defines Prometheus metrics for the ledger service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fundledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundledger_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundledger_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundledger_mutations_total",
			Help: "Total applied budget mutations by operation type",
		},
		[]string{"operation"},
	)

	MutationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fundledger_mutation_conflicts_total",
			Help: "Budget write attempts that lost the version race",
		},
	)

	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundledger_rejections_total",
			Help: "Proposed disbursements rejected by threshold rules",
		},
		[]string{"reason"},
	)

	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundledger_import_rows_total",
			Help: "Bulk import rows by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundledger_notifications_total",
			Help: "Notification records created by type",
		},
		[]string{"type"},
	)

	ReconcileMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fundledger_reconcile_mismatches_total",
			Help: "Reconciliation runs that found a ledger/document mismatch",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		MutationsTotal, MutationConflicts, RejectionsTotal,
		ImportRows, NotificationsTotal, ReconcileMismatches,
	)
}
