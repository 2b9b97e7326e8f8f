package models

import "time"

type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

type ABTestStatus string

const (
	ABTestStatusRunning   ABTestStatus = "running"
	ABTestStatusCompleted ABTestStatus = "completed"
	ABTestStatusCancelled ABTestStatus = "cancelled"
)

// ABTest compares two registered model versions on live traffic. Variant
// assignment is a pure function of (test ID, user ID), so the split holds
// across processes and restarts.
type ABTest struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ModelAID     string       `json:"model_a_id"`
	ModelBID     string       `json:"model_b_id"`
	TrafficSplit float64      `json:"traffic_split"`
	Status       ABTestStatus `json:"status"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ABOutcome is one recorded prediction outcome for a variant.
type ABOutcome struct {
	Variant        Variant   `json:"variant"`
	Prediction     float64   `json:"prediction"`
	Actual         float64   `json:"actual"`
	LatencySeconds float64   `json:"latency_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

func (o ABOutcome) Correct() bool {
	return o.Prediction == o.Actual
}

// VariantMetrics summarizes one variant's recorded outcomes.
type VariantMetrics struct {
	Variant     Variant `json:"variant"`
	Accuracy    float64 `json:"accuracy"`
	AvgLatency  float64 `json:"avg_latency"`
	SampleCount int     `json:"sample_count"`
}

// ABTestResults is the statistical comparison of the two variants.
type ABTestResults struct {
	TestID         string         `json:"test_id"`
	VariantA       VariantMetrics `json:"variant_a"`
	VariantB       VariantMetrics `json:"variant_b"`
	ChiSquare      float64        `json:"chi_square"`
	PValue         float64        `json:"p_value"`
	IsSignificant  bool           `json:"is_significant"`
	Recommendation string         `json:"recommendation"`
}
