package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlforge/modelops/pkg/models"
)

func receive(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	driftChan := bus.Subscribe(models.EventTypeDriftDetected)
	alertChan := bus.Subscribe(models.EventTypeAlertCreated)

	bus.Publish(models.NewEvent(models.EventTypeDriftDetected, "churn-model", "drift"))

	event := receive(t, driftChan)
	assert.Equal(t, models.EventTypeDriftDetected, event.Type)
	assert.Equal(t, "churn-model", event.ModelName)

	select {
	case <-alertChan:
		t.Fatal("alert subscriber must not receive drift events")
	default:
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	all := bus.SubscribeAll()

	bus.Publish(models.NewEvent(models.EventTypeModelRegistered, "churn-model", "registered"))
	bus.Publish(models.NewEvent(models.EventTypeAlertCreated, "churn-model", "alert"))

	first := receive(t, all)
	second := receive(t, all)
	assert.Equal(t, models.EventTypeModelRegistered, first.Type)
	assert.Equal(t, models.EventTypeAlertCreated, second.Type)
}

func TestEventBus_DropsWhenBufferFull(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeError)

	bus.Publish(models.NewEvent(models.EventTypeError, "m", "first"))
	bus.Publish(models.NewEvent(models.EventTypeError, "m", "second"))

	event := receive(t, ch)
	assert.Equal(t, "first", event.Message)

	select {
	case extra := <-ch:
		t.Fatalf("expected overflow to be dropped, got %q", extra.Message)
	default:
	}
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(models.EventTypeError)

	bus.Close()
	bus.Publish(models.NewEvent(models.EventTypeError, "m", "late"))

	_, open := <-ch
	assert.False(t, open)

	// Closing twice is a no-op.
	bus.Close()
}

func TestPublisher_WithTraceID(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeModelActivated)
	publisher := NewPublisher(bus).WithTraceID("trace-123")

	publisher.ModelActivated("churn-model", "1.0.0")

	event := receive(t, ch)
	assert.Equal(t, "trace-123", event.TraceID)
	assert.Contains(t, event.Message, "1.0.0")
}

func TestPublisher_AlertCreatedSeverity(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeAlertCreated)
	publisher := NewPublisher(bus)

	alert := models.NewDriftAlert("churn-model", models.DriftKindData, models.AlertSeverityCritical, "drift")
	publisher.AlertCreated(alert)

	event := receive(t, ch)
	require.Equal(t, models.SeverityCritical, event.Severity)
}
