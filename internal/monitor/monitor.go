package monitor

import (
	"math"
	"sync"
	"time"

	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

type Config struct {
	WindowSize           int
	DegradationThreshold float64
	DegradationLookback  int
}

// Monitor keeps bounded per-model rolling windows of performance records
// and compares recent history against stored baselines.
type Monitor struct {
	config    Config
	windows   map[string][]*models.PerformanceRecord
	baselines map[string]map[string]float64
	mu        sync.RWMutex
}

func New(cfg Config) *Monitor {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 1000
	}
	if cfg.DegradationThreshold == 0 {
		cfg.DegradationThreshold = 0.05
	}
	if cfg.DegradationLookback == 0 {
		cfg.DegradationLookback = 10
	}

	return &Monitor{
		config:    cfg,
		windows:   make(map[string][]*models.PerformanceRecord),
		baselines: make(map[string]map[string]float64),
	}
}

// SetBaseline stores the expected metric values for the model, replacing
// any prior baseline.
func (m *Monitor) SetBaseline(modelName string, baseline map[string]float64) {
	copied := make(map[string]float64, len(baseline))
	for k, v := range baseline {
		copied[k] = v
	}

	m.mu.Lock()
	m.baselines[modelName] = copied
	m.mu.Unlock()

	logger.WithModel(modelName).Debugf("Baseline set with %d metrics", len(copied))
}

// RecordInput is one evaluation batch. Probabilities, LatencySeconds and
// DriftScores are optional; DriftScores carries the drift signals measured
// alongside the batch so they travel with the snapshot.
type RecordInput struct {
	Predictions    []float64
	Labels         []float64
	Probabilities  []float64
	LatencySeconds float64
	DriftScores    map[string]float64
}

// Record evaluates the batch and appends the resulting snapshot to the
// model's rolling window. Batches whose labels take exactly two distinct
// values are scored as binary classification, anything else as regression.
func (m *Monitor) Record(modelName string, in RecordInput) (*models.PerformanceRecord, error) {
	if len(in.Predictions) == 0 || len(in.Predictions) != len(in.Labels) {
		return nil, errs.Validationf(
			"predictions and labels must be non-empty and equal length, got %d and %d",
			len(in.Predictions), len(in.Labels),
		)
	}

	rec := &models.PerformanceRecord{
		ModelName:   modelName,
		Timestamp:   time.Now(),
		SampleCount: len(in.Predictions),
	}
	if len(in.DriftScores) > 0 {
		rec.DriftScores = make(map[string]float64, len(in.DriftScores))
		for k, v := range in.DriftScores {
			rec.DriftScores[k] = v
		}
	}

	if isBinary(in.Labels) {
		rec.Classification = classificationMetrics(in.Predictions, in.Labels, in.Probabilities)
		rec.ErrorCount = misclassified(in.Predictions, in.Labels)
	} else {
		rec.Regression = regressionMetrics(in.Predictions, in.Labels)
	}

	if in.LatencySeconds > 0 {
		latency := in.LatencySeconds
		throughput := 1 / in.LatencySeconds
		rec.LatencySeconds = &latency
		rec.Throughput = &throughput
	}

	m.mu.Lock()
	window := append(m.windows[modelName], rec)
	if len(window) > m.config.WindowSize {
		window = window[len(window)-m.config.WindowSize:]
	}
	m.windows[modelName] = window
	length := len(window)
	m.mu.Unlock()

	metrics.Get().IncRecord(modelName)
	metrics.Get().SetWindowLength(modelName, length)

	return rec, nil
}

// Append stores an externally built record, applying the same window bound
// as Record.
func (m *Monitor) Append(rec *models.PerformanceRecord) {
	m.mu.Lock()
	window := append(m.windows[rec.ModelName], rec)
	if len(window) > m.config.WindowSize {
		window = window[len(window)-m.config.WindowSize:]
	}
	m.windows[rec.ModelName] = window
	length := len(window)
	m.mu.Unlock()

	metrics.Get().IncRecord(rec.ModelName)
	metrics.Get().SetWindowLength(rec.ModelName, length)
}

// History returns a snapshot of the model's rolling window, oldest first.
func (m *Monitor) History(modelName string) []*models.PerformanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	window := m.windows[modelName]
	out := make([]*models.PerformanceRecord, len(window))
	copy(out, window)
	return out
}

// Baseline returns the stored baseline for the model, or nil.
func (m *Monitor) Baseline(modelName string) map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baseline, ok := m.baselines[modelName]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(baseline))
	for k, v := range baseline {
		out[k] = v
	}
	return out
}

// DetectDegradation averages each baseline metric over the most recent
// records and flags metrics whose relative change exceeds the threshold.
func (m *Monitor) DetectDegradation(modelName string) (*models.DegradationReport, error) {
	m.mu.RLock()
	baseline, hasBaseline := m.baselines[modelName]
	window := m.windows[modelName]
	m.mu.RUnlock()

	if !hasBaseline {
		return nil, errs.NotFoundf("no baseline for model %s", modelName)
	}
	if len(window) == 0 {
		return nil, errs.NotFoundf("no performance history for model %s", modelName)
	}

	recent := window
	if len(recent) > m.config.DegradationLookback {
		recent = recent[len(recent)-m.config.DegradationLookback:]
	}

	report := &models.DegradationReport{
		ModelName: modelName,
		Timestamp: time.Now(),
	}

	for metric, base := range baseline {
		var sum float64
		var count int
		for _, rec := range recent {
			if v, ok := rec.MetricValues()[metric]; ok {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}
		current := sum / float64(count)

		var change float64
		if base != 0 {
			change = (current - base) / math.Abs(base)
		}

		report.Details = append(report.Details, models.DegradationDetail{
			Metric:         metric,
			Baseline:       base,
			Current:        current,
			RelativeChange: change,
			Degraded:       math.Abs(change) > m.config.DegradationThreshold,
		})
	}

	for _, d := range report.Details {
		if d.Degraded {
			report.Degraded = true
			break
		}
	}

	if report.Degraded {
		logger.WithModel(modelName).Warnf("Performance degradation over %d recent records", len(recent))
	}

	return report, nil
}

func isBinary(labels []float64) bool {
	distinct := make(map[float64]struct{}, 3)
	for _, l := range labels {
		distinct[l] = struct{}{}
		if len(distinct) > 2 {
			return false
		}
	}
	return len(distinct) == 2
}
