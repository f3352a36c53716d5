package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveJob(t *testing.T) {
	ObserveJob("metrics-test", time.Now(), "")
	ObserveJob("metrics-test", time.Now(), "TENDER_NOT_FOUND")
	ObserveJob("metrics-test", time.Now(), "TENDER_NOT_FOUND")

	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test")))
	assert.Equal(t, 2.0, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test", "TENDER_NOT_FOUND")))
}
