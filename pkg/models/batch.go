package models

import "time"

// PredictionBatch is one window of serving traffic pulled from a model's
// prediction feed: the input features, the model's outputs, and ground
// truth when it has arrived.
type PredictionBatch struct {
	ModelName      string    `json:"model_name"`
	Timestamp      time.Time `json:"timestamp"`
	Features       Dataset   `json:"features"`
	Predictions    []float64 `json:"predictions"`
	Labels         []float64 `json:"labels,omitempty"`
	Probabilities  []float64 `json:"probabilities,omitempty"`
	LatencySeconds float64   `json:"latency_seconds"`
	Availability   float64   `json:"availability"`
}

// HasLabels reports whether ground truth is present for every prediction.
func (b *PredictionBatch) HasLabels() bool {
	return len(b.Labels) > 0 && len(b.Labels) == len(b.Predictions)
}
