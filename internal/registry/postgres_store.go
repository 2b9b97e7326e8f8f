package registry

import (
	"context"
	"errors"

	"github.com/mlforge/modelops/pkg/database/queries"
	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

// PostgresStore adapts the SQL repository to the registry's Store contract,
// mapping repository sentinels onto the shared error taxonomy.
type PostgresStore struct {
	repo *queries.ModelVersionRepository
}

func NewPostgresStore(repo *queries.ModelVersionRepository) *PostgresStore {
	return &PostgresStore{repo: repo}
}

func (s *PostgresStore) Create(ctx context.Context, mv *models.ModelVersion) error {
	if err := s.repo.Create(ctx, mv); err != nil {
		return errs.Persistence("create model version", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, modelName, version string) (*models.ModelVersion, error) {
	mv, err := s.repo.Get(ctx, modelName, version)
	if err != nil {
		return nil, mapRepoErr(err, modelName, version)
	}
	return mv, nil
}

func (s *PostgresStore) GetActive(ctx context.Context, modelName string) (*models.ModelVersion, error) {
	mv, err := s.repo.GetActive(ctx, modelName)
	if err != nil {
		if errors.Is(err, queries.ErrVersionNotFound) {
			return nil, errs.NotFoundf("no active version for model %s", modelName)
		}
		return nil, errs.Persistence("get active version", err)
	}
	return mv, nil
}

func (s *PostgresStore) List(ctx context.Context, modelName string) ([]*models.ModelVersion, error) {
	versions, err := s.repo.List(ctx, modelName)
	if err != nil {
		return nil, errs.Persistence("list model versions", err)
	}
	return versions, nil
}

func (s *PostgresStore) SetActive(ctx context.Context, modelName, version string) error {
	if err := s.repo.SetActive(ctx, modelName, version); err != nil {
		return mapRepoErr(err, modelName, version)
	}
	return nil
}

func mapRepoErr(err error, modelName, version string) error {
	if errors.Is(err, queries.ErrVersionNotFound) {
		return errs.NotFoundf("model %s version %s", modelName, version)
	}
	return errs.Persistence("model version store", err)
}
