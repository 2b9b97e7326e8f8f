package watchdog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/pkg/models"
)

type HTTPFeed struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

type HTTPFeedConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPFeed(cfg HTTPFeedConfig) *HTTPFeed {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPFeed{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.Endpoint,
		timeout:  timeout,
	}
}

// feedResponse matches the expected response from the serving gateway.
type feedResponse struct {
	ModelName      string               `json:"model_name"`
	Timestamp      string               `json:"timestamp"`
	Features       map[string][]float64 `json:"features"`
	Predictions    []float64            `json:"predictions"`
	Labels         []float64            `json:"labels"`
	Probabilities  []float64            `json:"probabilities"`
	LatencySeconds float64              `json:"latency_seconds"`
	Availability   float64              `json:"availability"`
}

func (f *HTTPFeed) Fetch(ctx context.Context, modelName string) (*models.PredictionBatch, error) {
	url := fmt.Sprintf("%s/%s", f.endpoint, modelName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetchFailed, err)
	}

	req.Header.Set("Accept", "application/json")

	logger.WithModel(modelName).Debugf("Fetching predictions from %s", url)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrModelNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrFetchFailed, err)
	}

	var feedResp feedResponse
	if err := json.Unmarshal(body, &feedResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	batch := f.convertResponse(modelName, &feedResp)

	logger.WithModel(modelName).Debugf("Fetched batch of %d predictions", len(batch.Predictions))

	return batch, nil
}

func (f *HTTPFeed) convertResponse(modelName string, resp *feedResponse) *models.PredictionBatch {
	timestamp := time.Now()
	if resp.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, resp.Timestamp); err == nil {
			timestamp = parsed
		}
	}

	availability := resp.Availability
	if availability == 0 {
		availability = 1
	}

	return &models.PredictionBatch{
		ModelName:      modelName,
		Timestamp:      timestamp,
		Features:       resp.Features,
		Predictions:    resp.Predictions,
		Labels:         resp.Labels,
		Probabilities:  resp.Probabilities,
		LatencySeconds: resp.LatencySeconds,
		Availability:   availability,
	}
}

func (f *HTTPFeed) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", f.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (f *HTTPFeed) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
