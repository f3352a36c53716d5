package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestObservability_RecordsWithoutPanicking(t *testing.T) {
	obs := New("bidbuddy-workers-test", zap.NewNop())
	assert.NotNil(t, obs.jobCounter)
	assert.NotNil(t, obs.jobDuration)

	assert.NotPanics(t, func() {
		obs.RecordJobProcessed(context.Background(), "score-compliance")
		obs.RecordJobDuration(context.Background(), 120*time.Millisecond, "score-compliance")
		obs.Shutdown()
	})
}

func TestObservability_ZeroValueIsInert(t *testing.T) {
	obs := &Observability{log: zap.NewNop()}

	assert.NotPanics(t, func() {
		obs.RecordJobProcessed(context.Background(), "index-tender")
		obs.RecordJobDuration(context.Background(), time.Second, "index-tender")
		obs.Shutdown()
	})
}
