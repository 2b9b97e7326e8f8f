package drift

import (
	"sort"
	"sync"
	"time"

	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Config struct {
	Threshold           float64
	HistogramBins       int
	MinAnomalySamples   int
	AnomalyRatioLimit   float64
	IsolationTrees      int
	IsolationSampleSize int
}

// Detector compares live batches against stored per-model reference
// distributions.
type Detector struct {
	config     Config
	references map[string]models.Dataset
	refMu      sync.RWMutex
}

func New(cfg Config) *Detector {
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.1
	}
	if cfg.HistogramBins == 0 {
		cfg.HistogramBins = 50
	}
	if cfg.MinAnomalySamples == 0 {
		cfg.MinAnomalySamples = 100
	}
	if cfg.AnomalyRatioLimit == 0 {
		cfg.AnomalyRatioLimit = 0.2
	}
	if cfg.IsolationTrees == 0 {
		cfg.IsolationTrees = 100
	}
	if cfg.IsolationSampleSize == 0 {
		cfg.IsolationSampleSize = 256
	}

	return &Detector{
		config:     cfg,
		references: make(map[string]models.Dataset),
	}
}

// SetReference stores baseline feature distributions for the model,
// replacing any prior reference.
func (d *Detector) SetReference(modelName string, dataset models.Dataset) {
	copied := make(models.Dataset, len(dataset))
	for name, values := range dataset {
		col := make([]float64, len(values))
		copy(col, values)
		copied[name] = col
	}

	d.refMu.Lock()
	d.references[modelName] = copied
	d.refMu.Unlock()

	logger.WithModel(modelName).Debugf("Reference set with %d features", len(copied))
}

// DetectDataDrift scores each shared numeric feature with a two-sample
// Kolmogorov-Smirnov test and a Jensen-Shannon divergence over shared-range
// histograms. The aggregate score is the mean JS divergence.
func (d *Detector) DetectDataDrift(modelName string, current models.Dataset) (*models.DataDriftResult, error) {
	d.refMu.RLock()
	reference, ok := d.references[modelName]
	d.refMu.RUnlock()
	if !ok {
		return nil, errs.MissingReferencef("no reference distribution for model %s", modelName)
	}

	shared := reference.SharedFeatures(current)
	sort.Strings(shared)

	result := &models.DataDriftResult{
		ModelName: modelName,
		Timestamp: time.Now(),
	}

	var total float64
	for _, feature := range shared {
		refValues := reference[feature]
		curValues := current[feature]
		if len(refValues) == 0 || len(curValues) == 0 {
			continue
		}

		ksStat, pValue := ksTest(refValues, curValues)
		js := jsDivergence(refValues, curValues, d.config.HistogramBins)

		result.Features = append(result.Features, models.FeatureDrift{
			Feature:      feature,
			KSStatistic:  ksStat,
			PValue:       pValue,
			JSDivergence: js,
		})
		total += js
	}

	if len(result.Features) > 0 {
		result.AggregateScore = total / float64(len(result.Features))
	}
	result.DriftDetected = result.AggregateScore > d.config.Threshold

	metrics.Get().IncDriftCheck(modelName, result.DriftDetected)
	metrics.Get().SetDriftScore(modelName, result.AggregateScore)

	logger.WithModel(modelName).Debugf(
		"Data drift: score=%.4f detected=%v features=%d",
		result.AggregateScore, result.DriftDetected, len(result.Features),
	)

	return result, nil
}

// DetectConceptDrift runs unsupervised anomaly-ratio scoring over the 1-D
// prediction distribution. Labels, when present, are reserved for a future
// performance-based test; the current scoring is intentionally unsupervised.
// Below MinAnomalySamples the result is deterministically non-drifted.
func (d *Detector) DetectConceptDrift(modelName string, predictions []float64, labels []float64) (*models.ConceptDriftResult, error) {
	if len(predictions) == 0 {
		return nil, errs.InsufficientDataf("no predictions provided for model %s", modelName)
	}

	result := &models.ConceptDriftResult{
		ModelName:   modelName,
		Timestamp:   time.Now(),
		SampleCount: len(predictions),
		Stats:       describe(predictions),
	}

	if len(predictions) < d.config.MinAnomalySamples {
		metrics.Get().IncDriftCheck(modelName, false)
		return result, nil
	}

	forest := newIsolationForest(d.config.IsolationTrees, d.config.IsolationSampleSize)
	forest.Fit(predictions)

	anomalous := 0
	for _, p := range predictions {
		if forest.IsAnomaly(p) {
			anomalous++
		}
	}

	result.AnomalyRatio = float64(anomalous) / float64(len(predictions))
	result.DriftDetected = result.AnomalyRatio > d.config.AnomalyRatioLimit

	metrics.Get().IncDriftCheck(modelName, result.DriftDetected)

	logger.WithModel(modelName).Debugf(
		"Concept drift: ratio=%.4f detected=%v n=%d",
		result.AnomalyRatio, result.DriftDetected, len(predictions),
	)

	return result, nil
}

// HasReference reports whether a reference has been set for the model.
func (d *Detector) HasReference(modelName string) bool {
	d.refMu.RLock()
	defer d.refMu.RUnlock()
	_, ok := d.references[modelName]
	return ok
}

func describe(values []float64) models.PredictionStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return models.PredictionStats{
		Mean:   stat.Mean(sorted, nil),
		StdDev: stat.StdDev(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		P50:    stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}
