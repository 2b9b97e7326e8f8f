package models

import "time"

// Dataset is a columnar batch of numeric features, keyed by feature name.
type Dataset map[string][]float64

// SharedFeatures returns the feature names present in both datasets.
func (d Dataset) SharedFeatures(other Dataset) []string {
	var shared []string
	for name := range d {
		if _, ok := other[name]; ok {
			shared = append(shared, name)
		}
	}
	return shared
}

// FeatureDrift holds per-feature distribution comparison results.
type FeatureDrift struct {
	Feature      string  `json:"feature"`
	KSStatistic  float64 `json:"ks_statistic"`
	PValue       float64 `json:"p_value"`
	JSDivergence float64 `json:"js_divergence"`
}

// DataDriftResult is the outcome of comparing a live batch against the
// stored reference distributions.
type DataDriftResult struct {
	ModelName      string         `json:"model_name"`
	Timestamp      time.Time      `json:"timestamp"`
	DriftDetected  bool           `json:"drift_detected"`
	AggregateScore float64        `json:"aggregate_score"`
	Features       []FeatureDrift `json:"features"`
}

// PredictionStats are descriptive statistics of a prediction batch.
type PredictionStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
}

// ConceptDriftResult is the outcome of anomaly-ratio scoring over a
// prediction batch.
type ConceptDriftResult struct {
	ModelName     string          `json:"model_name"`
	Timestamp     time.Time       `json:"timestamp"`
	DriftDetected bool            `json:"drift_detected"`
	AnomalyRatio  float64         `json:"anomaly_ratio"`
	SampleCount   int             `json:"sample_count"`
	Stats         PredictionStats `json:"stats"`
}
