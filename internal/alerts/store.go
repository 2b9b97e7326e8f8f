package alerts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mlforge/modelops/pkg/database/queries"
	"github.com/mlforge/modelops/pkg/models"
)

func isNotFound(err error) bool {
	return errors.Is(err, queries.ErrAlertNotFound) || errors.Is(err, errMemoryAlertNotFound)
}

var errMemoryAlertNotFound = errors.New("alert not found")

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	alerts map[string]*models.DriftAlert
	mu     sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[string]*models.DriftAlert)}
}

func (s *MemoryStore) Create(_ context.Context, alert *models.DriftAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *alert
	s.alerts[alert.ID] = &copied
	return nil
}

func (s *MemoryStore) Active(_ context.Context, modelName string) ([]*models.DriftAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.DriftAlert
	for _, alert := range s.alerts {
		if alert.Resolved {
			continue
		}
		if modelName != "" && alert.ModelName != modelName {
			continue
		}
		copied := *alert
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Resolve(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return errMemoryAlertNotFound
	}
	if alert.Resolved {
		return nil
	}
	alert.Resolved = true
	alert.ResolvedAt = &at
	return nil
}

func (s *MemoryStore) LastCreatedAt(_ context.Context, modelName string, kind models.DriftKind) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	for _, alert := range s.alerts {
		if alert.ModelName == modelName && alert.Kind == kind && alert.CreatedAt.After(last) {
			last = alert.CreatedAt
		}
	}
	return last, nil
}

// PostgresStore adapts the alert repository to the Store interface.
type PostgresStore struct {
	repo *queries.AlertRepository
}

func NewPostgresStore(repo *queries.AlertRepository) *PostgresStore {
	return &PostgresStore{repo: repo}
}

func (s *PostgresStore) Create(ctx context.Context, alert *models.DriftAlert) error {
	return s.repo.Create(ctx, alert)
}

func (s *PostgresStore) Active(ctx context.Context, modelName string) ([]*models.DriftAlert, error) {
	return s.repo.Active(ctx, modelName)
}

func (s *PostgresStore) Resolve(ctx context.Context, id string, at time.Time) error {
	return s.repo.Resolve(ctx, id, at)
}

func (s *PostgresStore) LastCreatedAt(ctx context.Context, modelName string, kind models.DriftKind) (time.Time, error) {
	return s.repo.LastCreatedAt(ctx, modelName, kind)
}
