package health

import (
	"time"

	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/pkg/models"
)

// Weights distribute the composite score across the five sub-scores.
// They are expected to sum to 1.
type Weights struct {
	Accuracy     float64
	Latency      float64
	DataDrift    float64
	ConceptDrift float64
	Availability float64
}

func DefaultWeights() Weights {
	return Weights{
		Accuracy:     0.3,
		Latency:      0.2,
		DataDrift:    0.2,
		ConceptDrift: 0.2,
		Availability: 0.1,
	}
}

type Config struct {
	Weights        Weights
	LatencyBudget  float64
	DriftThreshold float64
}

// Scorer folds quality, latency, drift and availability signals into a
// single [0,1] health score per model.
type Scorer struct {
	config Config
}

func New(cfg Config) *Scorer {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if cfg.LatencyBudget == 0 {
		cfg.LatencyBudget = 1.0
	}
	if cfg.DriftThreshold == 0 {
		cfg.DriftThreshold = 0.1
	}
	return &Scorer{config: cfg}
}

// Signals are the raw inputs to one scoring pass.
type Signals struct {
	// Quality is accuracy for classifiers or R² for regressors.
	Quality        float64
	LatencySeconds float64
	DataDriftScore float64
	ConceptDrifted bool
	Availability   float64
}

// Score computes the weighted composite and maps it to a status.
func (s *Scorer) Score(modelName string, sig Signals) *models.HealthReport {
	components := models.ComponentScores{
		Accuracy:     clamp01(sig.Quality),
		Latency:      clamp01(1 - sig.LatencySeconds/s.config.LatencyBudget),
		DataDrift:    clamp01(1 - sig.DataDriftScore/s.config.DriftThreshold),
		ConceptDrift: 1,
		Availability: clamp01(sig.Availability),
	}
	if sig.ConceptDrifted {
		components.ConceptDrift = 0
	}

	w := s.config.Weights
	score := w.Accuracy*components.Accuracy +
		w.Latency*components.Latency +
		w.DataDrift*components.DataDrift +
		w.ConceptDrift*components.ConceptDrift +
		w.Availability*components.Availability

	report := &models.HealthReport{
		ModelName:  modelName,
		Timestamp:  time.Now(),
		Score:      score,
		Components: components,
		Status:     models.StatusForScore(score),
	}

	metrics.Get().SetHealthScore(modelName, score)

	if report.Status != models.HealthStatusHealthy {
		logger.WithModel(modelName).Warnf("Health %s (score %.3f)", report.Status, score)
	}

	return report
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
