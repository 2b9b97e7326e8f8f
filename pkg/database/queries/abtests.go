package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mlforge/modelops/pkg/models"
)

var ErrTestNotFound = errors.New("ab test not found")

type ABTestRepository struct {
	db *sql.DB
}

func NewABTestRepository(db *sql.DB) *ABTestRepository {
	return &ABTestRepository{db: db}
}

func (r *ABTestRepository) Create(ctx context.Context, test *models.ABTest) error {
	query := `
		INSERT INTO ab_tests (id, name, model_a_id, model_b_id, traffic_split, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		test.ID,
		test.Name,
		test.ModelAID,
		test.ModelBID,
		test.TrafficSplit,
		test.Status,
		test.StartDate,
		test.EndDate,
	).Scan(&test.CreatedAt)
}

func (r *ABTestRepository) Get(ctx context.Context, id string) (*models.ABTest, error) {
	query := `
		SELECT id, name, model_a_id, model_b_id, traffic_split, status, start_date, end_date, created_at
		FROM ab_tests
		WHERE id = $1`

	var test models.ABTest
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&test.ID,
		&test.Name,
		&test.ModelAID,
		&test.ModelBID,
		&test.TrafficSplit,
		&status,
		&test.StartDate,
		&test.EndDate,
		&test.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTestNotFound
	}
	if err != nil {
		return nil, err
	}

	test.Status = models.ABTestStatus(status)
	return &test, nil
}

func (r *ABTestRepository) UpdateStatus(ctx context.Context, id string, status models.ABTestStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ab_tests SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTestNotFound
	}
	return nil
}

func (r *ABTestRepository) AppendOutcome(ctx context.Context, testID string, outcome *models.ABOutcome) error {
	query := `
		INSERT INTO ab_outcomes (test_id, variant, prediction, actual, latency_seconds, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		testID,
		outcome.Variant,
		outcome.Prediction,
		outcome.Actual,
		outcome.LatencySeconds,
		outcome.Timestamp,
	)
	return err
}

func (r *ABTestRepository) Outcomes(ctx context.Context, testID string, variant models.Variant) ([]*models.ABOutcome, error) {
	query := `
		SELECT variant, prediction, actual, latency_seconds, recorded_at
		FROM ab_outcomes
		WHERE test_id = $1 AND variant = $2
		ORDER BY recorded_at`

	rows, err := r.db.QueryContext(ctx, query, testID, variant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []*models.ABOutcome
	for rows.Next() {
		var o models.ABOutcome
		var v string
		if err := rows.Scan(&v, &o.Prediction, &o.Actual, &o.LatencySeconds, &o.Timestamp); err != nil {
			return nil, err
		}
		o.Variant = models.Variant(v)
		outcomes = append(outcomes, &o)
	}

	return outcomes, rows.Err()
}
