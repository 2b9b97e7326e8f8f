package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

func isNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}

// MemoryStore is an in-memory Store used by tests and single-process
// deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string]map[string]*models.ModelVersion // name -> version -> entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[string]map[string]*models.ModelVersion),
	}
}

func (s *MemoryStore) Create(ctx context.Context, mv *models.ModelVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byVersion, ok := s.versions[mv.ModelName]
	if !ok {
		byVersion = make(map[string]*models.ModelVersion)
		s.versions[mv.ModelName] = byVersion
	}

	copied := *mv
	byVersion[mv.Version] = &copied
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, modelName, version string) (*models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mv, ok := s.versions[modelName][version]
	if !ok {
		return nil, errs.NotFoundf("model %s version %s", modelName, version)
	}

	copied := *mv
	return &copied, nil
}

func (s *MemoryStore) GetActive(ctx context.Context, modelName string) (*models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mv := range s.versions[modelName] {
		if mv.Active {
			copied := *mv
			return &copied, nil
		}
	}

	return nil, errs.NotFoundf("no active version for model %s", modelName)
}

func (s *MemoryStore) List(ctx context.Context, modelName string) ([]*models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ModelVersion
	for name, byVersion := range s.versions {
		if modelName != "" && name != modelName {
			continue
		}
		for _, mv := range byVersion {
			copied := *mv
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ModelName != out[j].ModelName {
			return out[i].ModelName < out[j].ModelName
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// SetActive flips the active flag under one write lock, so readers never
// observe an intermediate state.
func (s *MemoryStore) SetActive(ctx context.Context, modelName, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byVersion, ok := s.versions[modelName]
	if !ok {
		return errs.NotFoundf("model %s version %s", modelName, version)
	}
	target, ok := byVersion[version]
	if !ok {
		return errs.NotFoundf("model %s version %s", modelName, version)
	}

	for _, mv := range byVersion {
		mv.Active = false
	}
	target.Active = true

	return nil
}
