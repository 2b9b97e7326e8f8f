package watchdog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlforge/modelops/internal/alerts"
	"github.com/mlforge/modelops/internal/drift"
	"github.com/mlforge/modelops/internal/events"
	"github.com/mlforge/modelops/internal/health"
	"github.com/mlforge/modelops/internal/monitor"
	"github.com/mlforge/modelops/pkg/models"
)

type pipelineFixture struct {
	pipeline *Pipeline
	feed     *MockFeed
	detector *drift.Detector
	monitor  *monitor.Monitor
	alerts   *alerts.Manager
	bus      *events.EventBus
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	feed := NewMockFeed(MockFeedConfig{BatchSize: 300})
	feed.AddModel("churn-model", []string{"tenure", "charges"})

	detector := drift.New(drift.Config{})
	mon := monitor.New(monitor.Config{})
	scorer := health.New(health.Config{})
	bus := events.NewEventBus(100)
	alertManager := alerts.NewManager(alerts.Config{}, alerts.NewMemoryStore(), events.NewPublisher(bus))

	pipeline := NewPipeline(PipelineConfig{
		ModelName:      "churn-model",
		FetchInterval:  time.Hour,
		Feed:           feed,
		Detector:       detector,
		Monitor:        mon,
		Scorer:         scorer,
		AlertManager:   alertManager,
		EventPublisher: events.NewPublisher(bus),
	})
	t.Cleanup(bus.Close)

	return &pipelineFixture{
		pipeline: pipeline,
		feed:     feed,
		detector: detector,
		monitor:  mon,
		alerts:   alertManager,
		bus:      bus,
	}
}

func (fx *pipelineFixture) setReferenceFromFeed(t *testing.T) {
	t.Helper()
	batch, err := fx.feed.Fetch(context.Background(), "churn-model")
	require.NoError(t, err)
	fx.detector.SetReference("churn-model", batch.Features)
}

func TestPipeline_RunCycle_HealthyModel(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.setReferenceFromFeed(t)

	fx.pipeline.runCycle()

	history := fx.monitor.History("churn-model")
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Classification)
	assert.Equal(t, 1.0, history[0].Classification.Accuracy)

	active, err := fx.alerts.Active(context.Background(), "churn-model")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPipeline_RunCycle_DataDriftRaisesAlert(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.setReferenceFromFeed(t)

	driftEvents := fx.bus.Subscribe(models.EventTypeDriftDetected)
	fx.feed.SetDriftShift("churn-model", 4)

	fx.pipeline.runCycle()

	active, err := fx.alerts.Active(context.Background(), "churn-model")
	require.NoError(t, err)
	require.NotEmpty(t, active)

	found := false
	for _, alert := range active {
		if alert.Kind == models.DriftKindData {
			found = true
		}
	}
	assert.True(t, found, "expected a data drift alert")

	select {
	case event := <-driftEvents:
		assert.Equal(t, "churn-model", event.ModelName)
	case <-time.After(time.Second):
		t.Fatal("expected a data drift event")
	}
}

func TestPipeline_RunCycle_DegradationRaisesAlert(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.monitor.SetBaseline("churn-model", map[string]float64{"accuracy": 1.0})
	fx.feed.SetNoisy("churn-model", true)

	fx.pipeline.runCycle()

	active, err := fx.alerts.Active(context.Background(), "churn-model")
	require.NoError(t, err)

	found := false
	for _, alert := range active {
		if alert.Kind == models.DriftKindPerformance {
			found = true
		}
	}
	assert.True(t, found, "expected a performance degradation alert")
}

func TestPipeline_RunCycle_NoReferenceSkipsDataDrift(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.feed.SetDriftShift("churn-model", 4)

	fx.pipeline.runCycle()

	active, err := fx.alerts.Active(context.Background(), "churn-model")
	require.NoError(t, err)
	for _, alert := range active {
		assert.NotEqual(t, models.DriftKindData, alert.Kind)
	}
}

func TestPipeline_RunCycle_FetchFailurePublishesError(t *testing.T) {
	fx := newPipelineFixture(t)
	errorEvents := fx.bus.Subscribe(models.EventTypeError)
	fx.feed.SetShouldFail(true, nil)

	fx.pipeline.runCycle()

	select {
	case event := <-errorEvents:
		assert.Equal(t, "churn-model", event.ModelName)
	case <-time.After(time.Second):
		t.Fatal("expected an error event")
	}
	assert.Empty(t, fx.monitor.History("churn-model"))
}

func TestPipeline_RunCycle_RecordCarriesDriftScores(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.setReferenceFromFeed(t)

	fx.pipeline.runCycle()

	history := fx.monitor.History("churn-model")
	require.Len(t, history, 1)
	scores := history[0].DriftScores
	require.NotNil(t, scores)
	assert.Contains(t, scores, "data_aggregate")
	assert.Contains(t, scores, "js:tenure")
	assert.Contains(t, scores, "js:charges")
	assert.Contains(t, scores, "concept_anomaly_ratio")
}

func TestCycleTimeout(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     time.Duration
	}{
		{30 * time.Second, 29 * time.Second},
		{2 * time.Second, time.Second},
		// Short intervals keep a positive timeout instead of
		// collapsing to zero.
		{time.Second, time.Second},
		{500 * time.Millisecond, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cycleTimeout(tt.interval), "interval %s", tt.interval)
	}
}

func TestPipeline_StartStop(t *testing.T) {
	fx := newPipelineFixture(t)

	require.NoError(t, fx.pipeline.Start())
	assert.True(t, fx.pipeline.IsRunning())

	// Starting twice is a no-op.
	require.NoError(t, fx.pipeline.Start())

	fx.pipeline.Stop()
	assert.False(t, fx.pipeline.IsRunning())

	// Stopping twice is a no-op.
	fx.pipeline.Stop()
}

func TestSeverityForScore(t *testing.T) {
	assert.Equal(t, models.AlertSeverityCritical, severityForScore(0.5))
	assert.Equal(t, models.AlertSeverityWarning, severityForScore(0.15))
}
