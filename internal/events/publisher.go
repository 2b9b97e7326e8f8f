package events

import (
	"github.com/mlforge/modelops/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) ModelRegistered(version *models.ModelVersion) {
	event := models.NewEvent(models.EventTypeModelRegistered, version.ModelName,
		"Model version registered: "+version.Version).
		WithData(version)
	p.publish(event)
}

func (p *Publisher) ModelActivated(modelName, version string) {
	event := models.NewEvent(models.EventTypeModelActivated, modelName,
		"Model version activated: "+version)
	p.publish(event)
}

func (p *Publisher) DataDriftDetected(modelName string, result *models.DataDriftResult) {
	event := models.NewEvent(models.EventTypeDriftDetected, modelName, "Data drift detected").
		WithSeverity(models.SeverityWarning).
		WithData(result)
	p.publish(event)
}

func (p *Publisher) ConceptDriftDetected(modelName string, result *models.ConceptDriftResult) {
	event := models.NewEvent(models.EventTypeDriftDetected, modelName, "Concept drift detected").
		WithSeverity(models.SeverityWarning).
		WithData(result)
	p.publish(event)
}

func (p *Publisher) DegradationDetected(modelName string, report *models.DegradationReport) {
	event := models.NewEvent(models.EventTypeDegradationDetected, modelName, "Performance degradation detected").
		WithSeverity(models.SeverityWarning).
		WithData(report)
	p.publish(event)
}

func (p *Publisher) HealthComputed(modelName string, report *models.HealthReport) {
	event := models.NewEvent(models.EventTypeHealthComputed, modelName,
		"Health computed: "+string(report.Status)).
		WithData(report)

	if report.Status == models.HealthStatusFailing || report.Status == models.HealthStatusOffline {
		event.WithSeverity(models.SeverityCritical)
	} else if report.Status == models.HealthStatusDegraded {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) AlertCreated(alert *models.DriftAlert) {
	event := models.NewEvent(models.EventTypeAlertCreated, alert.ModelName, alert.Message).
		WithData(alert)

	switch alert.Severity {
	case models.AlertSeverityCritical, models.AlertSeverityEmergency:
		event.WithSeverity(models.SeverityCritical)
	case models.AlertSeverityWarning:
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) AlertResolved(alertID string) {
	event := models.NewEvent(models.EventTypeAlertResolved, "", "Alert resolved").
		WithData(map[string]string{"alert_id": alertID})
	p.publish(event)
}

func (p *Publisher) ABTestCreated(test *models.ABTest) {
	event := models.NewEvent(models.EventTypeABTestCreated, "", "A/B test created: "+test.Name).
		WithData(test)
	p.publish(event)
}

func (p *Publisher) ABTestCompleted(test *models.ABTest, results *models.ABTestResults) {
	event := models.NewEvent(models.EventTypeABTestCompleted, "", "A/B test completed: "+test.Name).
		WithData(results)
	p.publish(event)
}

func (p *Publisher) Error(modelName string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, modelName, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
