package models

import "time"

// ClassificationMetrics holds quality metrics for binary classifiers.
type ClassificationMetrics struct {
	Accuracy  float64  `json:"accuracy"`
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1"`
	AUC       *float64 `json:"auc,omitempty"`
}

// RegressionMetrics holds quality metrics for continuous predictors.
type RegressionMetrics struct {
	MSE  float64 `json:"mse"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// PerformanceRecord is one evaluation snapshot in a model's rolling window.
// Exactly one of Classification or Regression is set, matching the label
// shape observed for the batch.
type PerformanceRecord struct {
	ModelName      string                 `json:"model_name"`
	Timestamp      time.Time              `json:"timestamp"`
	Classification *ClassificationMetrics `json:"classification,omitempty"`
	Regression     *RegressionMetrics     `json:"regression,omitempty"`
	LatencySeconds *float64               `json:"latency_seconds,omitempty"`
	Throughput     *float64               `json:"throughput,omitempty"`
	SampleCount    int                    `json:"sample_count"`
	ErrorCount     int                    `json:"error_count"`
	DriftScores    map[string]float64     `json:"drift_scores,omitempty"`
	Extra          map[string]float64     `json:"extra,omitempty"`
}

// MetricValues flattens the record into a name->value map for comparison
// against a baseline.
func (r *PerformanceRecord) MetricValues() map[string]float64 {
	out := make(map[string]float64)
	if c := r.Classification; c != nil {
		out["accuracy"] = c.Accuracy
		out["precision"] = c.Precision
		out["recall"] = c.Recall
		out["f1"] = c.F1
		if c.AUC != nil {
			out["auc"] = *c.AUC
		}
	}
	if g := r.Regression; g != nil {
		out["mse"] = g.MSE
		out["mae"] = g.MAE
		out["rmse"] = g.RMSE
		out["r2"] = g.R2
	}
	if r.LatencySeconds != nil {
		out["latency"] = *r.LatencySeconds
	}
	if r.Throughput != nil {
		out["throughput"] = *r.Throughput
	}
	for k, v := range r.Extra {
		out[k] = v
	}
	return out
}

// DegradationDetail describes one metric's movement against its baseline.
type DegradationDetail struct {
	Metric         string  `json:"metric"`
	Baseline       float64 `json:"baseline"`
	Current        float64 `json:"current"`
	RelativeChange float64 `json:"relative_change"`
	Degraded       bool    `json:"degraded"`
}

// DegradationReport is the outcome of comparing recent history to a baseline.
type DegradationReport struct {
	ModelName string              `json:"model_name"`
	Timestamp time.Time           `json:"timestamp"`
	Degraded  bool                `json:"degraded"`
	Details   []DegradationDetail `json:"details"`
}
