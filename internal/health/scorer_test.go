package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlforge/modelops/pkg/models"
)

func perfectSignals() Signals {
	return Signals{
		Quality:        1,
		LatencySeconds: 0,
		DataDriftScore: 0,
		ConceptDrifted: false,
		Availability:   1,
	}
}

func TestScorer_Score(t *testing.T) {
	tests := []struct {
		name       string
		signals    Signals
		wantScore  float64
		wantStatus models.HealthStatus
	}{
		{
			name:       "perfect signals",
			signals:    perfectSignals(),
			wantScore:  1.0,
			wantStatus: models.HealthStatusHealthy,
		},
		{
			name: "concept drift drops its full weight",
			signals: Signals{
				Quality:        1,
				ConceptDrifted: true,
				Availability:   1,
			},
			wantScore:  0.8,
			wantStatus: models.HealthStatusHealthy,
		},
		{
			name: "everything failing",
			signals: Signals{
				Quality:        0,
				LatencySeconds: 10,
				DataDriftScore: 1,
				ConceptDrifted: true,
				Availability:   0,
			},
			wantScore:  0.0,
			wantStatus: models.HealthStatusOffline,
		},
		{
			name: "half quality only",
			signals: Signals{
				Quality:        0.5,
				LatencySeconds: 0,
				Availability:   1,
			},
			wantScore:  0.85,
			wantStatus: models.HealthStatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{})

			report := s.Score("churn", tt.signals)

			assert.InDelta(t, tt.wantScore, report.Score, 1e-9)
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, "churn", report.ModelName)
		})
	}
}

func TestScorer_Score_ClampsComponents(t *testing.T) {
	s := New(Config{})

	report := s.Score("churn", Signals{
		Quality:        1.8,
		LatencySeconds: 50,
		DataDriftScore: 3,
		Availability:   2,
	})

	assert.Equal(t, 1.0, report.Components.Accuracy)
	assert.Equal(t, 0.0, report.Components.Latency)
	assert.Equal(t, 0.0, report.Components.DataDrift)
	assert.Equal(t, 1.0, report.Components.Availability)
}

func TestScorer_Score_LatencyBudget(t *testing.T) {
	s := New(Config{LatencyBudget: 0.2})

	report := s.Score("churn", Signals{
		Quality:        1,
		LatencySeconds: 0.1,
		Availability:   1,
	})

	assert.InDelta(t, 0.5, report.Components.Latency, 1e-9)
}

func TestScorer_Score_MonotonicInQuality(t *testing.T) {
	s := New(Config{})

	low := s.Score("churn", Signals{Quality: 0.2, Availability: 1})
	high := s.Score("churn", Signals{Quality: 0.9, Availability: 1})

	assert.Greater(t, high.Score, low.Score)
}

func TestDefaultWeights_SumToOne(t *testing.T) {
	w := DefaultWeights()

	total := w.Accuracy + w.Latency + w.DataDrift + w.ConceptDrift + w.Availability

	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestStatusForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  models.HealthStatus
	}{
		{0.95, models.HealthStatusHealthy},
		{0.8, models.HealthStatusHealthy},
		{0.7, models.HealthStatusDegraded},
		{0.6, models.HealthStatusDegraded},
		{0.5, models.HealthStatusFailing},
		{0.4, models.HealthStatusFailing},
		{0.2, models.HealthStatusOffline},
		{0, models.HealthStatusOffline},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, models.StatusForScore(tt.score), "score %.2f", tt.score)
	}
}

func TestStatusForScore_FloatAccumulation(t *testing.T) {
	// A weighted sum that is nominally 0.8 accumulates to
	// 0.7999999999999999 in float64; it must still map to healthy.
	terms := []float64{0.3, 0.2, 0.2, 0.1}
	sum := 0.0
	for _, v := range terms {
		sum += v
	}
	assert.Less(t, sum, 0.8)
	assert.Equal(t, models.HealthStatusHealthy, models.StatusForScore(sum))

	// The same tolerance applies at the lower thresholds.
	assert.Equal(t, models.HealthStatusDegraded, models.StatusForScore(0.6-1e-12))
	assert.Equal(t, models.HealthStatusFailing, models.StatusForScore(0.4-1e-12))

	// A genuinely lower score is still classified down.
	assert.Equal(t, models.HealthStatusDegraded, models.StatusForScore(0.79))
}
