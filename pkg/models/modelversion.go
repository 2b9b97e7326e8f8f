package models

import "time"

type ModelKind string

const (
	ModelKindClassification ModelKind = "classification"
	ModelKindRegression     ModelKind = "regression"
	ModelKindForecasting    ModelKind = "forecasting"
	ModelKindSegmentation   ModelKind = "segmentation"
)

// ModelVersion is an immutable registry entry for a trained model artifact.
// Content integrity is proven by ArtifactDigest; corrections require a new
// version rather than mutation.
type ModelVersion struct {
	ID                 string             `json:"id"`
	ModelName          string             `json:"model_name"`
	Version            string             `json:"version"`
	Kind               ModelKind          `json:"kind"`
	ArtifactLocation   string             `json:"artifact_location"`
	ArtifactDigest     string             `json:"artifact_digest"`
	TrainingDataDigest string             `json:"training_data_digest,omitempty"`
	Metrics            map[string]float64 `json:"metrics,omitempty"`
	Description        string             `json:"description,omitempty"`
	Active             bool               `json:"active"`
	CreatedAt          time.Time          `json:"created_at"`
}

func NewModelVersion(name, version string, kind ModelKind) *ModelVersion {
	return &ModelVersion{
		ID:        NewUUID(),
		ModelName: name,
		Version:   version,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}

// Key identifies a version uniquely within the registry.
func (mv *ModelVersion) Key() (string, string) {
	return mv.ModelName, mv.Version
}

func (mv *ModelVersion) SameContent(digest string) bool {
	return mv.ArtifactDigest == digest
}
