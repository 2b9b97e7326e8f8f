package drift

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

func TestDetector_SetReference(t *testing.T) {
	d := New(Config{})

	assert.False(t, d.HasReference("fraud-model"))

	source := models.Dataset{"amount": {1, 2, 3}}
	d.SetReference("fraud-model", source)

	assert.True(t, d.HasReference("fraud-model"))

	// The stored reference must not alias the caller's slices.
	source["amount"][0] = 999
	result, err := d.DetectDataDrift("fraud-model", models.Dataset{"amount": {1, 2, 3}})
	require.NoError(t, err)
	assert.False(t, result.DriftDetected)
}

func TestDetector_DetectDataDrift_NoReference(t *testing.T) {
	d := New(Config{})

	_, err := d.DetectDataDrift("unknown", models.Dataset{"x": {1, 2}})

	assert.ErrorIs(t, err, errs.ErrMissingReference)
}

func TestDetector_DetectDataDrift(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	reference := models.Dataset{
		"tenure":  normalSample(rng, 500, 10, 2),
		"charges": normalSample(rng, 500, 60, 15),
	}

	tests := []struct {
		name         string
		current      models.Dataset
		wantDetected bool
	}{
		{
			name: "stable distribution",
			current: models.Dataset{
				"tenure":  normalSample(rng, 500, 10, 2),
				"charges": normalSample(rng, 500, 60, 15),
			},
			wantDetected: false,
		},
		{
			name: "shifted distribution",
			current: models.Dataset{
				"tenure":  normalSample(rng, 500, 25, 2),
				"charges": normalSample(rng, 500, 200, 15),
			},
			wantDetected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(Config{})
			d.SetReference("churn", reference)

			result, err := d.DetectDataDrift("churn", tt.current)

			require.NoError(t, err)
			assert.Equal(t, tt.wantDetected, result.DriftDetected)
			assert.Len(t, result.Features, 2)
			assert.Equal(t, "churn", result.ModelName)
		})
	}
}

func TestDetector_DetectDataDrift_IgnoresUnsharedFeatures(t *testing.T) {
	d := New(Config{})
	d.SetReference("churn", models.Dataset{
		"tenure": {1, 2, 3, 4, 5},
		"extra":  {1, 2, 3},
	})

	result, err := d.DetectDataDrift("churn", models.Dataset{
		"tenure": {1, 2, 3, 4, 5},
		"other":  {9, 9, 9},
	})

	require.NoError(t, err)
	assert.Len(t, result.Features, 1)
	assert.Equal(t, "tenure", result.Features[0].Feature)
}

func TestDetector_DetectConceptDrift(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	tests := []struct {
		name         string
		predictions  []float64
		wantErr      error
		wantDetected bool
	}{
		{
			name:        "empty predictions",
			predictions: nil,
			wantErr:     errs.ErrInsufficientData,
		},
		{
			name:         "below minimum sample size",
			predictions:  normalSample(rng, 50, 0.5, 0.1),
			wantDetected: false,
		},
		{
			name:         "stable unimodal predictions",
			predictions:  normalSample(rng, 500, 0.5, 0.1),
			wantDetected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(Config{})

			result, err := d.DetectConceptDrift("churn", tt.predictions, nil)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDetected, result.DriftDetected)
			assert.Equal(t, len(tt.predictions), result.SampleCount)
		})
	}
}

func TestDetector_DetectConceptDrift_SmallSampleSkipsScoring(t *testing.T) {
	d := New(Config{MinAnomalySamples: 100})

	result, err := d.DetectConceptDrift("churn", []float64{0.1, 0.9, 0.5}, nil)

	require.NoError(t, err)
	assert.False(t, result.DriftDetected)
	assert.Zero(t, result.AnomalyRatio)
	assert.Equal(t, 3, result.SampleCount)
}

func TestDetector_Defaults(t *testing.T) {
	d := New(Config{})

	assert.Equal(t, 0.1, d.config.Threshold)
	assert.Equal(t, 50, d.config.HistogramBins)
	assert.Equal(t, 100, d.config.MinAnomalySamples)
	assert.Equal(t, 0.2, d.config.AnomalyRatioLimit)
}
