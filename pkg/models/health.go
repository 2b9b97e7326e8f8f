package models

import "time"

type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusFailing  HealthStatus = "failing"
	HealthStatusOffline  HealthStatus = "offline"
)

// ComponentScores are the [0,1] sub-scores feeding the composite.
type ComponentScores struct {
	Accuracy     float64 `json:"accuracy"`
	Latency      float64 `json:"latency"`
	DataDrift    float64 `json:"data_drift"`
	ConceptDrift float64 `json:"concept_drift"`
	Availability float64 `json:"availability"`
}

// HealthReport is the composite health assessment of one model.
type HealthReport struct {
	ModelName  string          `json:"model_name"`
	Timestamp  time.Time       `json:"timestamp"`
	Score      float64         `json:"score"`
	Components ComponentScores `json:"components"`
	Status     HealthStatus    `json:"status"`
}

// statusEpsilon absorbs float accumulation error in the weighted sum, so a
// composite that is nominally 0.8 (e.g. 0.3+0.2+0.2+0.1 with a zero term)
// still lands on the healthy side of the threshold.
const statusEpsilon = 1e-9

func StatusForScore(score float64) HealthStatus {
	switch {
	case score >= 0.8-statusEpsilon:
		return HealthStatusHealthy
	case score >= 0.6-statusEpsilon:
		return HealthStatusDegraded
	case score >= 0.4-statusEpsilon:
		return HealthStatusFailing
	default:
		return HealthStatusOffline
	}
}
