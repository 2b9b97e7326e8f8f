package abtest

import (
	"context"
	"errors"
	"sync"

	"github.com/mlforge/modelops/pkg/database/queries"
	"github.com/mlforge/modelops/pkg/models"
)

func isNotFound(err error) bool {
	return errors.Is(err, queries.ErrTestNotFound) || errors.Is(err, errMemoryTestNotFound)
}

var errMemoryTestNotFound = errors.New("ab test not found")

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	tests    map[string]*models.ABTest
	outcomes map[string][]*models.ABOutcome
	mu       sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tests:    make(map[string]*models.ABTest),
		outcomes: make(map[string][]*models.ABOutcome),
	}
}

func (s *MemoryStore) Create(_ context.Context, test *models.ABTest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *test
	s.tests[test.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.ABTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	test, ok := s.tests[id]
	if !ok {
		return nil, errMemoryTestNotFound
	}
	copied := *test
	return &copied, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status models.ABTestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	test, ok := s.tests[id]
	if !ok {
		return errMemoryTestNotFound
	}
	test.Status = status
	return nil
}

func (s *MemoryStore) AppendOutcome(_ context.Context, testID string, outcome *models.ABOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tests[testID]; !ok {
		return errMemoryTestNotFound
	}
	copied := *outcome
	s.outcomes[testID] = append(s.outcomes[testID], &copied)
	return nil
}

func (s *MemoryStore) Outcomes(_ context.Context, testID string, variant models.Variant) ([]*models.ABOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ABOutcome
	for _, o := range s.outcomes[testID] {
		if o.Variant != variant {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return out, nil
}

// PostgresStore adapts the A/B test repository to the Store interface.
type PostgresStore struct {
	repo *queries.ABTestRepository
}

func NewPostgresStore(repo *queries.ABTestRepository) *PostgresStore {
	return &PostgresStore{repo: repo}
}

func (s *PostgresStore) Create(ctx context.Context, test *models.ABTest) error {
	return s.repo.Create(ctx, test)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.ABTest, error) {
	return s.repo.Get(ctx, id)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.ABTestStatus) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *PostgresStore) AppendOutcome(ctx context.Context, testID string, outcome *models.ABOutcome) error {
	return s.repo.AppendOutcome(ctx, testID, outcome)
}

func (s *PostgresStore) Outcomes(ctx context.Context, testID string, variant models.Variant) ([]*models.ABOutcome, error) {
	return s.repo.Outcomes(ctx, testID, variant)
}
