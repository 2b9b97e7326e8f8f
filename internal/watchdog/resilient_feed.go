package watchdog

import (
	"context"
	"time"

	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/resilience"
	"github.com/mlforge/modelops/pkg/models"
)

// ResilientFeed wraps a PredictionFeed with retries and a circuit breaker
// so a flapping serving gateway cannot wedge the watchdog loop.
type ResilientFeed struct {
	feed           PredictionFeed
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientFeedConfig struct {
	Feed          PredictionFeed
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientFeed(cfg ResilientFeedConfig) *ResilientFeed {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "prediction-feed",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientFeed{
		feed:           cfg.Feed,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (f *ResilientFeed) Fetch(ctx context.Context, modelName string) (*models.PredictionBatch, error) {
	var batch *models.PredictionBatch
	var lastErr error

	err := f.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= f.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var err error
			batch, err = f.feed.Fetch(ctx, modelName)
			if err == nil {
				return nil
			}

			lastErr = err
			logger.WithModel(modelName).Warnf(
				"Fetch attempt %d/%d failed: %v",
				attempt, f.retryAttempts, err,
			)

			if attempt < f.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(f.retryDelay):
				}
			}
		}
		return lastErr
	})

	if err != nil {
		return nil, err
	}

	return batch, nil
}

func (f *ResilientFeed) HealthCheck(ctx context.Context) error {
	return f.feed.HealthCheck(ctx)
}

func (f *ResilientFeed) Close() error {
	return f.feed.Close()
}

func (f *ResilientFeed) CircuitState() resilience.State {
	return f.circuitBreaker.State()
}

func (f *ResilientFeed) ResetCircuit() {
	f.circuitBreaker.Reset()
}
