package models

import "time"

type DriftKind string

const (
	DriftKindData        DriftKind = "data_drift"
	DriftKindConcept     DriftKind = "concept_drift"
	DriftKindPerformance DriftKind = "performance"
	DriftKindPrediction  DriftKind = "prediction_drift"
)

type AlertSeverity string

const (
	AlertSeverityInfo      AlertSeverity = "info"
	AlertSeverityWarning   AlertSeverity = "warning"
	AlertSeverityCritical  AlertSeverity = "critical"
	AlertSeverityEmergency AlertSeverity = "emergency"
)

// DriftAlert records an alert-worthy condition for a model. Creation is
// rate-limited per (model, kind) by the alert manager's cooldown.
type DriftAlert struct {
	ID         string            `json:"id"`
	ModelName  string            `json:"model_name"`
	Kind       DriftKind         `json:"kind"`
	Severity   AlertSeverity     `json:"severity"`
	Message    string            `json:"message"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Resolved   bool              `json:"resolved"`
	CreatedAt  time.Time         `json:"created_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

func NewDriftAlert(model string, kind DriftKind, severity AlertSeverity, message string) *DriftAlert {
	return &DriftAlert{
		ID:        NewUUID(),
		ModelName: model,
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// AlertOutcome distinguishes a persisted alert from a cooldown suppression.
// Suppression is policy, not failure, so it is a value rather than an error.
type AlertOutcome struct {
	Alert         *DriftAlert `json:"alert,omitempty"`
	Suppressed    bool        `json:"suppressed"`
	NextAllowedAt time.Time   `json:"next_allowed_at,omitempty"`
}
