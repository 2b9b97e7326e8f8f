package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mlforge/modelops/pkg/models"
)

// ModelSim generates synthetic serving traffic for one model.
type ModelSim struct {
	name         string
	featureNames []string
	batchSize    int
	featureMean  float64
	featureStd   float64
	errorRate    float64
	latency      float64
	pattern      Pattern
	rng          *rand.Rand
	mu           sync.Mutex
}

type ModelSimConfig struct {
	FeatureNames []string
	BatchSize    int
	FeatureMean  float64
	FeatureStd   float64
	ErrorRate    float64
	Latency      float64
}

func NewModelSim(name string, cfg ModelSimConfig) *ModelSim {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 200
	}
	if cfg.FeatureStd == 0 {
		cfg.FeatureStd = 1
	}
	if cfg.Latency == 0 {
		cfg.Latency = 0.05
	}
	if len(cfg.FeatureNames) == 0 {
		cfg.FeatureNames = []string{"f0", "f1", "f2"}
	}

	return &ModelSim{
		name:         name,
		featureNames: cfg.FeatureNames,
		batchSize:    cfg.BatchSize,
		featureMean:  cfg.FeatureMean,
		featureStd:   cfg.FeatureStd,
		errorRate:    cfg.ErrorRate,
		latency:      cfg.Latency,
		pattern:      PatternStable,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *ModelSim) SetPattern(p Pattern) {
	m.mu.Lock()
	m.pattern = p
	m.mu.Unlock()
}

func (m *ModelSim) SetErrorRate(rate float64) {
	m.mu.Lock()
	m.errorRate = rate
	m.mu.Unlock()
}

func (m *ModelSim) PatternName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pattern.Name()
}

// Batch produces the next synthetic prediction batch.
func (m *ModelSim) Batch() *models.PredictionBatch {
	m.mu.Lock()
	defer m.mu.Unlock()

	shift := m.pattern.Shift() * m.featureStd

	features := make(models.Dataset, len(m.featureNames))
	for _, name := range m.featureNames {
		col := make([]float64, m.batchSize)
		for i := range col {
			col[i] = m.featureMean + shift + m.rng.NormFloat64()*m.featureStd
		}
		features[name] = col
	}

	predictions := make([]float64, m.batchSize)
	labels := make([]float64, m.batchSize)
	probabilities := make([]float64, m.batchSize)
	for i := range predictions {
		labels[i] = float64(m.rng.Intn(2))
		predictions[i] = labels[i]
		if m.rng.Float64() < m.errorRate {
			predictions[i] = 1 - labels[i]
		}
		probabilities[i] = 0.1 + 0.8*predictions[i] + m.rng.Float64()*0.1
	}

	return &models.PredictionBatch{
		ModelName:      m.name,
		Timestamp:      time.Now(),
		Features:       features,
		Predictions:    predictions,
		Labels:         labels,
		Probabilities:  probabilities,
		LatencySeconds: m.latency,
		Availability:   1,
	}
}
