package registry

import (
	"time"

	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/internal/resilience"
)

// ResilientArtifactStore wraps an ArtifactStore with a circuit breaker so a
// failing blob backend degrades fast instead of stalling every registry call.
type ResilientArtifactStore struct {
	store          ArtifactStore
	circuitBreaker *resilience.CircuitBreaker
}

func NewResilientArtifactStore(store ArtifactStore, maxFailures int, timeout time.Duration) *ResilientArtifactStore {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "artifact_store",
		MaxFailures: maxFailures,
		Timeout:     timeout,
		OnStateChange: func(name string, from, to resilience.State) {
			metrics.Get().SetCircuitBreakerState(name, int(to))
		},
	})

	return &ResilientArtifactStore{
		store:          store,
		circuitBreaker: cb,
	}
}

func (s *ResilientArtifactStore) Store(artifact []byte) (string, error) {
	var location string
	err := s.circuitBreaker.Execute(func() error {
		var err error
		location, err = s.store.Store(artifact)
		return err
	})
	return location, err
}

func (s *ResilientArtifactStore) Load(location string) ([]byte, error) {
	var data []byte
	err := s.circuitBreaker.Execute(func() error {
		var err error
		data, err = s.store.Load(location)
		return err
	})
	return data, err
}

func (s *ResilientArtifactStore) CircuitState() resilience.State {
	return s.circuitBreaker.State()
}
