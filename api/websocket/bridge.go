package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/pkg/models"
)

// EventBridge forwards lifecycle events to WebSocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	wsMessage := b.convertToWSMessage(event)
	if wsMessage == nil {
		return
	}

	data, err := json.Marshal(wsMessage)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	if event.ModelName != "" {
		b.hub.BroadcastToModel(event.ModelName, data)
		return
	}
	// Events without a model, such as A/B test completions, go to everyone
	b.hub.Broadcast(data)
}

// WebSocketEvent is the message format sent to WebSocket clients.
type WebSocketEvent struct {
	Type      string      `json:"type"`
	ModelName string      `json:"model_name,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func (b *EventBridge) convertToWSMessage(event *models.Event) *WebSocketEvent {
	wsType := mapEventType(event.Type)
	if wsType == "" {
		return nil // Skip events we don't want to broadcast
	}

	return &WebSocketEvent{
		Type:      wsType,
		ModelName: event.ModelName,
		Timestamp: event.Timestamp,
		Severity:  string(event.Severity),
		Message:   event.Message,
		Data:      event.Data,
	}
}

func mapEventType(eventType models.EventType) string {
	switch eventType {
	case models.EventTypeModelRegistered:
		return "model_registered"
	case models.EventTypeModelActivated:
		return "model_activated"
	case models.EventTypeDriftDetected:
		return "drift"
	case models.EventTypeDegradationDetected:
		return "degradation"
	case models.EventTypeHealthComputed:
		return "health"
	case models.EventTypeAlertCreated:
		return "alert"
	case models.EventTypeAlertResolved:
		return "alert_resolved"
	case models.EventTypeABTestCompleted:
		return "abtest_completed"
	case models.EventTypeError:
		return "error"
	default:
		// Skip abtest_created and other internal events
		return ""
	}
}
