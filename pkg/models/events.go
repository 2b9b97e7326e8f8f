package models

import "time"

type EventType string

const (
	EventTypeModelRegistered     EventType = "model_registered"
	EventTypeModelActivated      EventType = "model_activated"
	EventTypeDriftDetected       EventType = "drift_detected"
	EventTypeDegradationDetected EventType = "degradation_detected"
	EventTypeHealthComputed      EventType = "health_computed"
	EventTypeAlertCreated        EventType = "alert_created"
	EventTypeAlertResolved       EventType = "alert_resolved"
	EventTypeABTestCreated       EventType = "abtest_created"
	EventTypeABTestCompleted     EventType = "abtest_completed"
	EventTypeError               EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal lifecycle event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	ModelName string        `json:"model_name,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, modelName, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  SeverityInfo,
		ModelName: modelName,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}
