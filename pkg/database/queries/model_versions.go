package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/mlforge/modelops/pkg/models"
)

var ErrVersionNotFound = errors.New("model version not found")

type ModelVersionRepository struct {
	db *sql.DB
}

func NewModelVersionRepository(db *sql.DB) *ModelVersionRepository {
	return &ModelVersionRepository{db: db}
}

const modelVersionColumns = `
	id, model_name, version, kind, artifact_location, artifact_digest,
	training_data_digest, metrics, description, active, created_at`

func (r *ModelVersionRepository) Create(ctx context.Context, mv *models.ModelVersion) error {
	metricsJSON, err := json.Marshal(mv.Metrics)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO model_versions
			(id, model_name, version, kind, artifact_location, artifact_digest,
			 training_data_digest, metrics, description, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		mv.ID,
		mv.ModelName,
		mv.Version,
		mv.Kind,
		mv.ArtifactLocation,
		mv.ArtifactDigest,
		nullString(mv.TrainingDataDigest),
		metricsJSON,
		nullString(mv.Description),
		mv.Active,
	).Scan(&mv.CreatedAt)
}

func (r *ModelVersionRepository) Get(ctx context.Context, modelName, version string) (*models.ModelVersion, error) {
	query := `SELECT` + modelVersionColumns + `
		FROM model_versions
		WHERE model_name = $1 AND version = $2`

	row := r.db.QueryRowContext(ctx, query, modelName, version)
	mv, err := scanModelVersionRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrVersionNotFound
	}
	return mv, err
}

func (r *ModelVersionRepository) GetActive(ctx context.Context, modelName string) (*models.ModelVersion, error) {
	query := `SELECT` + modelVersionColumns + `
		FROM model_versions
		WHERE model_name = $1 AND active`

	row := r.db.QueryRowContext(ctx, query, modelName)
	mv, err := scanModelVersionRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrVersionNotFound
	}
	return mv, err
}

func (r *ModelVersionRepository) List(ctx context.Context, modelName string) ([]*models.ModelVersion, error) {
	query := `SELECT` + modelVersionColumns + `
		FROM model_versions
		WHERE $1 = '' OR model_name = $1
		ORDER BY model_name, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, modelName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.ModelVersion
	for rows.Next() {
		mv, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, mv)
	}

	return versions, rows.Err()
}

// SetActive deactivates every version of the model and activates the target
// in one transaction. The partial unique index on (model_name) WHERE active
// backs the invariant at the schema level.
func (r *ModelVersionRepository) SetActive(ctx context.Context, modelName, version string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE model_versions SET active = FALSE WHERE model_name = $1 AND active`,
		modelName,
	); err != nil {
		tx.Rollback()
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE model_versions SET active = TRUE WHERE model_name = $1 AND version = $2`,
		modelName, version,
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrVersionNotFound
	}

	return tx.Commit()
}

func scanModelVersion(rows *sql.Rows) (*models.ModelVersion, error) {
	return scanVersionFields(rows.Scan)
}

func scanModelVersionRow(row *sql.Row) (*models.ModelVersion, error) {
	return scanVersionFields(row.Scan)
}

func scanVersionFields(scan func(dest ...interface{}) error) (*models.ModelVersion, error) {
	var mv models.ModelVersion
	var kind string
	var trainingDigest, description sql.NullString
	var metricsJSON []byte

	err := scan(
		&mv.ID,
		&mv.ModelName,
		&mv.Version,
		&kind,
		&mv.ArtifactLocation,
		&mv.ArtifactDigest,
		&trainingDigest,
		&metricsJSON,
		&description,
		&mv.Active,
		&mv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	mv.Kind = models.ModelKind(kind)
	mv.TrainingDataDigest = trainingDigest.String
	mv.Description = description.String
	if len(metricsJSON) > 0 {
		json.Unmarshal(metricsJSON, &mv.Metrics)
	}

	return &mv, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
