package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mlforge/modelops/pkg/models"
)

type PerformanceRepository struct {
	db *sql.DB
}

func NewPerformanceRepository(db *sql.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

func (r *PerformanceRepository) Append(ctx context.Context, rec *models.PerformanceRecord) error {
	metricsJSON, err := json.Marshal(rec.MetricValues())
	if err != nil {
		return err
	}
	var driftJSON []byte
	if rec.DriftScores != nil {
		driftJSON, err = json.Marshal(rec.DriftScores)
		if err != nil {
			return err
		}
	}

	var latency sql.NullFloat64
	if rec.LatencySeconds != nil {
		latency = sql.NullFloat64{Float64: *rec.LatencySeconds, Valid: true}
	}

	query := `
		INSERT INTO performance_records
			(model_name, recorded_at, metrics, sample_count, error_count, latency_seconds, drift_scores)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ModelName,
		rec.Timestamp,
		metricsJSON,
		rec.SampleCount,
		rec.ErrorCount,
		latency,
		driftJSON,
	)
	return err
}

// Recent returns up to limit records for the model, newest first.
func (r *PerformanceRepository) Recent(ctx context.Context, modelName string, limit int) ([]map[string]float64, error) {
	query := `
		SELECT metrics
		FROM performance_records
		WHERE model_name = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, modelName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []map[string]float64
	for rows.Next() {
		var metricsJSON []byte
		if err := rows.Scan(&metricsJSON); err != nil {
			return nil, err
		}
		metrics := make(map[string]float64)
		if err := json.Unmarshal(metricsJSON, &metrics); err != nil {
			return nil, err
		}
		records = append(records, metrics)
	}

	return records, rows.Err()
}

// Prune drops everything outside the newest windowSize records per model.
func (r *PerformanceRepository) Prune(ctx context.Context, modelName string, windowSize int) error {
	query := `
		DELETE FROM performance_records
		WHERE model_name = $1 AND id NOT IN (
			SELECT id FROM performance_records
			WHERE model_name = $1
			ORDER BY recorded_at DESC
			LIMIT $2
		)`

	_, err := r.db.ExecContext(ctx, query, modelName, windowSize)
	return err
}

func (r *PerformanceRepository) Count(ctx context.Context, modelName string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM performance_records WHERE model_name = $1`,
		modelName,
	).Scan(&count)
	return count, err
}
