package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	assert.Equal(t, "stable", ParsePattern("stable").Name())
	assert.Equal(t, "daily", ParsePattern("daily").Name())
	assert.Equal(t, "gradual", ParsePattern("gradual").Name())
	assert.Equal(t, "sudden", ParsePattern("sudden").Name())
	assert.Equal(t, "stable", ParsePattern("unknown").Name())
}

func TestStablePattern(t *testing.T) {
	assert.Equal(t, 0.0, PatternStable.Shift())
}

func TestDailyPattern_StaysBounded(t *testing.T) {
	shift := PatternDaily.Shift()

	assert.GreaterOrEqual(t, shift, -0.5)
	assert.LessOrEqual(t, shift, 0.5)
}

func TestGradualPattern(t *testing.T) {
	fresh := &GradualPattern{startTime: time.Now()}
	assert.InDelta(t, 0, fresh.Shift(), 0.01)

	twoHoursIn := &GradualPattern{startTime: time.Now().Add(-2 * time.Hour)}
	assert.InDelta(t, 2, twoHoursIn.Shift(), 0.01)

	// Drift is capped at three standard deviations.
	longAgo := &GradualPattern{startTime: time.Now().Add(-48 * time.Hour)}
	assert.Equal(t, 3.0, longAgo.Shift())
}

func TestSuddenPattern(t *testing.T) {
	fresh := &SuddenPattern{startTime: time.Now()}
	assert.Equal(t, 0.0, fresh.Shift())

	past := &SuddenPattern{startTime: time.Now().Add(-2 * time.Minute)}
	assert.Equal(t, 2.0, past.Shift())
}

func TestModelSim_Batch(t *testing.T) {
	sim := NewModelSim("churn-model", ModelSimConfig{BatchSize: 100})

	batch := sim.Batch()

	require.NotNil(t, batch)
	assert.Equal(t, "churn-model", batch.ModelName)
	assert.Len(t, batch.Features, 3)
	assert.Len(t, batch.Predictions, 100)
	assert.Len(t, batch.Labels, 100)
	assert.Equal(t, 1.0, batch.Availability)
}

func TestModelSim_ErrorRateFlipsPredictions(t *testing.T) {
	sim := NewModelSim("churn-model", ModelSimConfig{BatchSize: 500})
	sim.SetErrorRate(1.0)

	batch := sim.Batch()

	for i := range batch.Predictions {
		assert.NotEqual(t, batch.Labels[i], batch.Predictions[i])
	}
}

func TestModelSim_PatternShiftsFeatures(t *testing.T) {
	sim := NewModelSim("churn-model", ModelSimConfig{BatchSize: 500})

	before := sim.Batch()
	sim.SetPattern(&SuddenPattern{startTime: time.Now().Add(-2 * time.Minute)})
	after := sim.Batch()

	meanBefore := mean(before.Features["f0"])
	meanAfter := mean(after.Features["f0"])
	assert.Greater(t, meanAfter-meanBefore, 1.0)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
