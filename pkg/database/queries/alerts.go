package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mlforge/modelops/pkg/models"
)

var ErrAlertNotFound = errors.New("alert not found")

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *models.DriftAlert) error {
	var metadataJSON []byte
	var err error
	if alert.Metadata != nil {
		metadataJSON, err = json.Marshal(alert.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO drift_alerts (id, model_name, kind, severity, message, metadata, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		alert.ID,
		alert.ModelName,
		alert.Kind,
		alert.Severity,
		alert.Message,
		metadataJSON,
	).Scan(&alert.CreatedAt)
}

// Active returns unresolved alerts, newest first. An empty modelName matches
// all models.
func (r *AlertRepository) Active(ctx context.Context, modelName string) ([]*models.DriftAlert, error) {
	query := `
		SELECT id, model_name, kind, severity, message, metadata, resolved, created_at, resolved_at
		FROM drift_alerts
		WHERE NOT resolved AND ($1 = '' OR model_name = $1)
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, modelName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.DriftAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// Resolve marks the alert resolved. Resolving an already-resolved alert is a
// no-op.
func (r *AlertRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE drift_alerts SET resolved = TRUE, resolved_at = $2 WHERE id = $1 AND NOT resolved`,
		id, at,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish missing from already-resolved
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM drift_alerts WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrAlertNotFound
		}
	}

	return nil
}

// LastCreatedAt returns the creation time of the most recent alert for the
// (model, kind) pair, or zero time when none exists.
func (r *AlertRepository) LastCreatedAt(ctx context.Context, modelName string, kind models.DriftKind) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM drift_alerts WHERE model_name = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`,
		modelName, kind,
	).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return at, err
}

func scanAlert(rows *sql.Rows) (*models.DriftAlert, error) {
	var alert models.DriftAlert
	var kind, severity string
	var metadataJSON []byte
	var resolvedAt sql.NullTime

	err := rows.Scan(
		&alert.ID,
		&alert.ModelName,
		&kind,
		&severity,
		&alert.Message,
		&metadataJSON,
		&alert.Resolved,
		&alert.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.Kind = models.DriftKind(kind)
	alert.Severity = models.AlertSeverity(severity)
	if len(metadataJSON) > 0 {
		json.Unmarshal(metadataJSON, &alert.Metadata)
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}

	return &alert, nil
}
