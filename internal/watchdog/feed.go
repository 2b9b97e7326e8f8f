package watchdog

import (
	"context"
	"errors"

	"github.com/mlforge/modelops/pkg/models"
)

var (
	ErrFetchFailed     = errors.New("prediction fetch failed")
	ErrTimeout         = errors.New("fetch timeout")
	ErrModelNotFound   = errors.New("model not found")
	ErrInvalidResponse = errors.New("invalid response from prediction feed")
)

// PredictionFeed supplies serving traffic for a monitored model.
type PredictionFeed interface {
	// Fetch returns the latest batch of predictions for the model.
	Fetch(ctx context.Context, modelName string) (*models.PredictionBatch, error)

	// HealthCheck verifies the feed can reach its data source.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the feed.
	Close() error
}
