package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(MergedRecordsCounter)
	RecordMerge(3)
	assert.Equal(t, before+3, testutil.ToFloat64(MergedRecordsCounter))

	skipped := testutil.ToFloat64(ResolutionSkippedCounter.WithLabelValues("email"))
	RecordResolutionSkipped("email")
	assert.Equal(t, skipped+1, testutil.ToFloat64(ResolutionSkippedCounter.WithLabelValues("email")))

	RecordConflict("different_user", "phone")
	assert.GreaterOrEqual(t, testutil.ToFloat64(ConflictCounter.WithLabelValues("different_user", "phone")), 1.0)

	RecordDependentsRepointed("bookings", 4)
	assert.GreaterOrEqual(t, testutil.ToFloat64(DependentsRepointedCounter.WithLabelValues("bookings")), 4.0)
}

func TestTrackDBOperation(t *testing.T) {
	done := TrackDBOperation("metrics_test")
	done()

	assert.Equal(t, 1, testutil.CollectAndCount(DBOperationDuration, "customer_db_operation_duration_seconds"))
}
