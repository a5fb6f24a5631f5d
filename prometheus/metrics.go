package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// LinkOutcomeCounter counts link attempts by result
	LinkOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_link_total",
			Help: "Total number of account to customer link attempts",
		},
		[]string{"outcome"}, // "created", "linked", "merged", "unchanged", "conflict", "invalid_role", "error", ...
	)

	// GuestOutcomeCounter counts guest resolution calls by result
	GuestOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_guest_resolution_total",
			Help: "Total number of guest customer resolutions",
		},
		[]string{"outcome"}, // "created", "updated", "unchanged", "conflict", "invalid", "error", ...
	)

	// ConflictCounter counts refused resolutions by kind and the channel that matched
	ConflictCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_identity_conflicts_total",
			Help: "Total number of identity conflicts detected",
		},
		[]string{"kind", "channel"},
	)

	// MergeCounter counts merges of duplicate customer records
	MergeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "customer_merges_total",
			Help: "Total number of duplicate customer merges",
		},
	)

	// MergedRecordsCounter counts duplicate records removed by merges
	MergedRecordsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "customer_merged_records_total",
			Help: "Total number of duplicate customer records deleted by merges",
		},
	)

	// DependentsRepointedCounter counts dependent rows moved to a canonical record
	DependentsRepointedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_dependents_repointed_total",
			Help: "Total number of dependent records repointed during merges",
		},
		[]string{"table"},
	)

	// ResolutionSkippedCounter counts merges skipped because the set spans accounts
	ResolutionSkippedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_resolution_skipped_total",
			Help: "Total number of duplicate resolutions skipped",
		},
		[]string{"channel"}, // "email" or "phone"
	)

	// DataIntegrityCounter counts states that should never exist in storage
	DataIntegrityCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_data_integrity_errors_total",
			Help: "Total number of customer data integrity errors",
		},
		[]string{"type"}, // "duplicate_link"
	)
)

// Histogram metrics
var (
	// DBOperationDuration measures repository calls
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "customer_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(LinkOutcomeCounter)
	prometheus.MustRegister(GuestOutcomeCounter)
	prometheus.MustRegister(ConflictCounter)
	prometheus.MustRegister(MergeCounter)
	prometheus.MustRegister(MergedRecordsCounter)
	prometheus.MustRegister(DependentsRepointedCounter)
	prometheus.MustRegister(ResolutionSkippedCounter)
	prometheus.MustRegister(DataIntegrityCounter)

	prometheus.MustRegister(DBOperationDuration)
}

// TrackDBOperation measures a database operation; call the returned func when it ends
func TrackDBOperation(operation string) func() {
	startTime := time.Now()
	return func() {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// RecordLinkOutcome records the result of a link attempt
func RecordLinkOutcome(outcome string) {
	LinkOutcomeCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordGuestOutcome records the result of a guest resolution
func RecordGuestOutcome(outcome string) {
	GuestOutcomeCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordConflict records a refused resolution
func RecordConflict(kind, channel string) {
	ConflictCounter.With(prometheus.Labels{"kind": kind, "channel": channel}).Inc()
}

// RecordMerge records a completed merge and the number of records it removed
func RecordMerge(removed int) {
	MergeCounter.Inc()
	MergedRecordsCounter.Add(float64(removed))
}

// RecordDependentsRepointed records dependent rows moved during a merge
func RecordDependentsRepointed(table string, rows int64) {
	DependentsRepointedCounter.With(prometheus.Labels{"table": table}).Add(float64(rows))
}

// RecordResolutionSkipped records a duplicate set left unmerged because it spans accounts
func RecordResolutionSkipped(channel string) {
	ResolutionSkippedCounter.With(prometheus.Labels{"channel": channel}).Inc()
}

// RecordDataIntegrityError records a storage state that violates identity rules
func RecordDataIntegrityError(errorType string) {
	DataIntegrityCounter.With(prometheus.Labels{"type": errorType}).Inc()
}
