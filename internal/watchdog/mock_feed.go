package watchdog

import (
	"context"
	"math/rand"
	"time"

	"github.com/mlforge/modelops/pkg/models"
)

// MockFeed generates synthetic serving traffic. Drift can be injected
// per model to exercise the detection path.
type MockFeed struct {
	models       map[string]*mockModel
	batchSize    int
	shouldFail   bool
	failureError error
	rng          *rand.Rand
}

type mockModel struct {
	featureNames []string
	featureMean  float64
	featureStd   float64
	driftShift   float64
	noisy        bool
	latency      float64
}

type MockFeedConfig struct {
	BatchSize   int
	FeatureMean float64
	FeatureStd  float64
}

func NewMockFeed(cfg MockFeedConfig) *MockFeed {
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 200
	}

	return &MockFeed{
		models:    make(map[string]*mockModel),
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddModel registers a model with the given feature columns.
func (f *MockFeed) AddModel(modelName string, featureNames []string) {
	f.models[modelName] = &mockModel{
		featureNames: featureNames,
		featureMean:  0,
		featureStd:   1,
		latency:      0.05,
	}
}

// SetDriftShift shifts the model's feature distributions by the given
// number of standard deviations.
func (f *MockFeed) SetDriftShift(modelName string, shift float64) {
	if m, ok := f.models[modelName]; ok {
		m.driftShift = shift
	}
}

// SetNoisy makes the model's predictions wrong half the time.
func (f *MockFeed) SetNoisy(modelName string, noisy bool) {
	if m, ok := f.models[modelName]; ok {
		m.noisy = noisy
	}
}

func (f *MockFeed) SetLatency(modelName string, seconds float64) {
	if m, ok := f.models[modelName]; ok {
		m.latency = seconds
	}
}

func (f *MockFeed) SetShouldFail(shouldFail bool, err error) {
	f.shouldFail = shouldFail
	f.failureError = err
}

func (f *MockFeed) Fetch(_ context.Context, modelName string) (*models.PredictionBatch, error) {
	if f.shouldFail {
		if f.failureError != nil {
			return nil, f.failureError
		}
		return nil, ErrFetchFailed
	}

	m, ok := f.models[modelName]
	if !ok {
		return nil, ErrModelNotFound
	}

	features := make(models.Dataset, len(m.featureNames))
	for _, name := range m.featureNames {
		col := make([]float64, f.batchSize)
		for i := range col {
			col[i] = m.featureMean + m.driftShift*m.featureStd + f.rng.NormFloat64()*m.featureStd
		}
		features[name] = col
	}

	predictions := make([]float64, f.batchSize)
	labels := make([]float64, f.batchSize)
	probabilities := make([]float64, f.batchSize)
	for i := range predictions {
		labels[i] = float64(f.rng.Intn(2))
		predictions[i] = labels[i]
		if m.noisy && f.rng.Float64() < 0.5 {
			predictions[i] = 1 - labels[i]
		}
		p := 0.1 + 0.8*predictions[i] + f.rng.Float64()*0.1
		probabilities[i] = p
	}

	return &models.PredictionBatch{
		ModelName:      modelName,
		Timestamp:      time.Now(),
		Features:       features,
		Predictions:    predictions,
		Labels:         labels,
		Probabilities:  probabilities,
		LatencySeconds: m.latency,
		Availability:   1,
	}, nil
}

func (f *MockFeed) HealthCheck(_ context.Context) error {
	if f.shouldFail {
		return ErrFetchFailed
	}
	return nil
}

func (f *MockFeed) Close() error {
	return nil
}
