package watchdog

import (
	"context"
	"fmt"
	"sync"

	"github.com/mlforge/modelops/internal/alerts"
	"github.com/mlforge/modelops/internal/drift"
	"github.com/mlforge/modelops/internal/events"
	"github.com/mlforge/modelops/internal/health"
	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/monitor"
	"github.com/mlforge/modelops/pkg/config"
	"github.com/mlforge/modelops/pkg/models"
)

// Watchdog owns the shared monitoring components and one pipeline per
// watched model.
type Watchdog struct {
	config       *config.Config
	eventBus     *events.EventBus
	eventLogger  *events.EventLogger
	detector     *drift.Detector
	monitor      *monitor.Monitor
	scorer       *health.Scorer
	alertManager *alerts.Manager
	pipelines    map[string]*Pipeline
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

func New(cfg *config.Config, alertStore alerts.Store) *Watchdog {
	ctx, cancel := context.WithCancel(context.Background())

	eventBus := events.NewEventBus(cfg.Events.BufferSize)

	// Subscribe event logger to all events
	allEvents := eventBus.SubscribeAll()
	eventLogger := events.NewEventLogger(allEvents)

	detector := drift.New(drift.Config{
		Threshold:           cfg.Drift.Threshold,
		HistogramBins:       cfg.Drift.HistogramBins,
		MinAnomalySamples:   cfg.Drift.MinAnomalySamples,
		AnomalyRatioLimit:   cfg.Drift.AnomalyRatioLimit,
		IsolationTrees:      cfg.Drift.IsolationTrees,
		IsolationSampleSize: cfg.Drift.IsolationSampleSize,
	})

	mon := monitor.New(monitor.Config{
		WindowSize:           cfg.Monitor.WindowSize,
		DegradationThreshold: cfg.Monitor.DegradationThreshold,
		DegradationLookback:  cfg.Monitor.RecentRecords,
	})

	scorer := health.New(health.Config{
		Weights: health.Weights{
			Accuracy:     cfg.Health.Weights.Accuracy,
			Latency:      cfg.Health.Weights.Latency,
			DataDrift:    cfg.Health.Weights.DataDrift,
			ConceptDrift: cfg.Health.Weights.ConceptDrift,
			Availability: cfg.Health.Weights.Availability,
		},
		DriftThreshold: cfg.Health.DriftThreshold,
	})

	publisher := events.NewPublisher(eventBus)
	alertManager := alerts.NewManager(alerts.Config{Cooldown: cfg.Alerts.Cooldown}, alertStore, publisher)

	return &Watchdog{
		config:       cfg,
		eventBus:     eventBus,
		eventLogger:  eventLogger,
		detector:     detector,
		monitor:      mon,
		scorer:       scorer,
		alertManager: alertManager,
		pipelines:    make(map[string]*Pipeline),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Watchdog) Start() error {
	logger.Info("Watchdog starting")
	w.eventLogger.Start()
	return nil
}

func (w *Watchdog) Stop() {
	logger.Info("Watchdog stopping")

	w.mu.Lock()
	for modelName, pipeline := range w.pipelines {
		logger.Infof("Stopping pipeline for model %s", modelName)
		pipeline.Stop()
	}
	w.mu.Unlock()

	w.cancel()
	w.eventLogger.Stop()
	w.eventBus.Close()

	logger.Info("Watchdog stopped")
}

// WatchModel starts a monitoring pipeline for the model fed by the given
// prediction feed.
func (w *Watchdog) WatchModel(modelName string, feed PredictionFeed) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.pipelines[modelName]; exists {
		return fmt.Errorf("pipeline already exists for model %s", modelName)
	}

	pipeline := NewPipeline(PipelineConfig{
		ModelName:      modelName,
		FetchInterval:  w.config.Watchdog.Interval,
		Feed:           feed,
		Detector:       w.detector,
		Monitor:        w.monitor,
		Scorer:         w.scorer,
		AlertManager:   w.alertManager,
		EventPublisher: events.NewPublisher(w.eventBus),
	})

	if err := pipeline.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	w.pipelines[modelName] = pipeline
	logger.WithModel(modelName).Info("Model pipeline started")

	return nil
}

// UnwatchModel stops and removes the model's pipeline.
func (w *Watchdog) UnwatchModel(modelName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	pipeline, exists := w.pipelines[modelName]
	if !exists {
		return fmt.Errorf("no pipeline found for model %s", modelName)
	}

	pipeline.Stop()
	delete(w.pipelines, modelName)
	logger.WithModel(modelName).Info("Model pipeline stopped")

	return nil
}

// IsWatching reports whether the model has a running pipeline.
func (w *Watchdog) IsWatching(modelName string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	pipeline, exists := w.pipelines[modelName]
	return exists && pipeline.IsRunning()
}

// WatchedModels lists the models with running pipelines.
func (w *Watchdog) WatchedModels() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.pipelines))
	for modelName, pipeline := range w.pipelines {
		if pipeline.IsRunning() {
			names = append(names, modelName)
		}
	}
	return names
}

// Detector exposes the shared drift detector for reference management.
func (w *Watchdog) Detector() *drift.Detector {
	return w.detector
}

// Monitor exposes the shared performance monitor.
func (w *Watchdog) Monitor() *monitor.Monitor {
	return w.monitor
}

// Scorer exposes the shared health scorer.
func (w *Watchdog) Scorer() *health.Scorer {
	return w.scorer
}

// AlertManager exposes the shared alert manager.
func (w *Watchdog) AlertManager() *alerts.Manager {
	return w.alertManager
}

// Publisher returns a publisher bound to the watchdog's event bus, for
// components that emit lifecycle events outside a pipeline.
func (w *Watchdog) Publisher() *events.Publisher {
	return events.NewPublisher(w.eventBus)
}

// SubscribeEvents returns a channel of events of the given type.
func (w *Watchdog) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return w.eventBus.Subscribe(eventType)
}

// SubscribeAllEvents returns a channel carrying every event type.
func (w *Watchdog) SubscribeAllEvents() <-chan *models.Event {
	return w.eventBus.SubscribeAll()
}
