package watchdog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mlforge/modelops/internal/alerts"
	"github.com/mlforge/modelops/internal/drift"
	"github.com/mlforge/modelops/internal/events"
	"github.com/mlforge/modelops/internal/health"
	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/monitor"
	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

type PipelineConfig struct {
	ModelName      string
	FetchInterval  time.Duration
	Feed           PredictionFeed
	Detector       *drift.Detector
	Monitor        *monitor.Monitor
	Scorer         *health.Scorer
	AlertManager   *alerts.Manager
	EventPublisher *events.Publisher
}

// Pipeline runs the periodic check cycle for one model: fetch a batch,
// score drift, record performance, compute health, raise alerts.
type Pipeline struct {
	config  PipelineConfig
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.FetchInterval == 0 {
		cfg.FetchInterval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.wg.Add(1)
	go p.run()

	logger.WithModel(p.config.ModelName).Info("Pipeline started")
	return nil
}

func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	logger.WithModel(p.config.ModelName).Info("Pipeline stopped")
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pipeline) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.FetchInterval)
	defer ticker.Stop()

	// Run immediately on start
	p.runCycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runCycle()
		}
	}
}

func (p *Pipeline) runCycle() {
	ctx, cancel := context.WithTimeout(p.ctx, cycleTimeout(p.config.FetchInterval))
	defer cancel()

	modelName := p.config.ModelName

	batch, err := p.config.Feed.Fetch(ctx, modelName)
	if err != nil {
		logger.WithModel(modelName).Errorf("Fetch failed: %v", err)
		p.config.EventPublisher.Error(modelName, "Prediction fetch failed", err)
		return
	}

	dataResult := p.checkDataDrift(ctx, batch)
	conceptResult := p.checkConceptDrift(ctx, batch)
	record := p.recordPerformance(ctx, batch, driftScores(dataResult, conceptResult))
	p.computeHealth(batch, dataResult, conceptResult, record)
}

func (p *Pipeline) checkDataDrift(ctx context.Context, batch *models.PredictionBatch) *models.DataDriftResult {
	modelName := p.config.ModelName
	if len(batch.Features) == 0 || !p.config.Detector.HasReference(modelName) {
		return nil
	}

	result, err := p.config.Detector.DetectDataDrift(modelName, batch.Features)
	if err != nil {
		logger.WithModel(modelName).Errorf("Data drift check failed: %v", err)
		return nil
	}

	if result.DriftDetected {
		p.config.EventPublisher.DataDriftDetected(modelName, result)
		p.raiseAlert(ctx, models.DriftKindData, severityForScore(result.AggregateScore),
			fmt.Sprintf("Data drift detected: aggregate score %.4f over %d features",
				result.AggregateScore, len(result.Features)),
			map[string]string{"aggregate_score": fmt.Sprintf("%.4f", result.AggregateScore)},
		)
	}
	return result
}

func (p *Pipeline) checkConceptDrift(ctx context.Context, batch *models.PredictionBatch) *models.ConceptDriftResult {
	modelName := p.config.ModelName
	if len(batch.Predictions) == 0 {
		return nil
	}

	result, err := p.config.Detector.DetectConceptDrift(modelName, batch.Predictions, batch.Labels)
	if err != nil {
		logger.WithModel(modelName).Errorf("Concept drift check failed: %v", err)
		return nil
	}

	if result.DriftDetected {
		p.config.EventPublisher.ConceptDriftDetected(modelName, result)
		p.raiseAlert(ctx, models.DriftKindConcept, models.AlertSeverityWarning,
			fmt.Sprintf("Concept drift detected: anomaly ratio %.4f over %d predictions",
				result.AnomalyRatio, result.SampleCount),
			map[string]string{"anomaly_ratio": fmt.Sprintf("%.4f", result.AnomalyRatio)},
		)
	}
	return result
}

func (p *Pipeline) recordPerformance(ctx context.Context, batch *models.PredictionBatch, scores map[string]float64) *models.PerformanceRecord {
	modelName := p.config.ModelName
	if !batch.HasLabels() {
		return nil
	}

	record, err := p.config.Monitor.Record(modelName, monitor.RecordInput{
		Predictions:    batch.Predictions,
		Labels:         batch.Labels,
		Probabilities:  batch.Probabilities,
		LatencySeconds: batch.LatencySeconds,
		DriftScores:    scores,
	})
	if err != nil {
		logger.WithModel(modelName).Errorf("Performance recording failed: %v", err)
		return nil
	}

	report, err := p.config.Monitor.DetectDegradation(modelName)
	if err != nil {
		// No baseline yet is routine; anything else is worth logging
		if !errors.Is(err, errs.ErrNotFound) {
			logger.WithModel(modelName).Errorf("Degradation check failed: %v", err)
		}
		return record
	}

	if report.Degraded {
		p.config.EventPublisher.DegradationDetected(modelName, report)
		p.raiseAlert(ctx, models.DriftKindPerformance, models.AlertSeverityCritical,
			degradationMessage(report),
			nil,
		)
	}
	return record
}

func (p *Pipeline) computeHealth(batch *models.PredictionBatch, dataResult *models.DataDriftResult, conceptResult *models.ConceptDriftResult, record *models.PerformanceRecord) {
	signals := health.Signals{
		Quality:        1,
		LatencySeconds: batch.LatencySeconds,
		Availability:   batch.Availability,
	}
	if record != nil {
		if c := record.Classification; c != nil {
			signals.Quality = c.Accuracy
		} else if g := record.Regression; g != nil {
			signals.Quality = g.R2
		}
	}
	if dataResult != nil {
		signals.DataDriftScore = dataResult.AggregateScore
	}
	if conceptResult != nil {
		signals.ConceptDrifted = conceptResult.DriftDetected
	}

	report := p.config.Scorer.Score(p.config.ModelName, signals)
	p.config.EventPublisher.HealthComputed(p.config.ModelName, report)
}

func (p *Pipeline) raiseAlert(ctx context.Context, kind models.DriftKind, severity models.AlertSeverity, message string, metadata map[string]string) {
	outcome, err := p.config.AlertManager.Create(ctx, p.config.ModelName, kind, severity, message, metadata)
	if err != nil {
		logger.WithModel(p.config.ModelName).Errorf("Alert creation failed: %v", err)
		return
	}
	if outcome.Suppressed {
		logger.WithModel(p.config.ModelName).Debugf("Alert suppressed until %s", outcome.NextAllowedAt.Format(time.RFC3339))
	}
}

// cycleTimeout leaves a second of slack before the next tick, but never
// collapses to zero for sub-second intervals.
func cycleTimeout(interval time.Duration) time.Duration {
	timeout := interval - time.Second
	if timeout < 100*time.Millisecond {
		return interval
	}
	return timeout
}

// driftScores flattens the cycle's drift measurements into the map stored
// on the performance record.
func driftScores(data *models.DataDriftResult, concept *models.ConceptDriftResult) map[string]float64 {
	if data == nil && concept == nil {
		return nil
	}
	scores := make(map[string]float64)
	if data != nil {
		scores["data_aggregate"] = data.AggregateScore
		for _, f := range data.Features {
			scores["js:"+f.Feature] = f.JSDivergence
		}
	}
	if concept != nil {
		scores["concept_anomaly_ratio"] = concept.AnomalyRatio
	}
	return scores
}

func severityForScore(score float64) models.AlertSeverity {
	if score > 0.3 {
		return models.AlertSeverityCritical
	}
	return models.AlertSeverityWarning
}

func degradationMessage(report *models.DegradationReport) string {
	for _, d := range report.Details {
		if d.Degraded {
			return fmt.Sprintf("Performance degradation: %s moved %.2f%% from baseline %.4f to %.4f",
				d.Metric, d.RelativeChange*100, d.Baseline, d.Current)
		}
	}
	return "Performance degradation detected"
}
