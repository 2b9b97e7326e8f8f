package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/mlforge/modelops/internal/events"
	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
	"github.com/mlforge/modelops/pkg/validation"
)

// Store persists alerts. LastCreatedAt drives the cooldown decision and
// must reflect alerts written through Create.
type Store interface {
	Create(ctx context.Context, alert *models.DriftAlert) error
	Active(ctx context.Context, modelName string) ([]*models.DriftAlert, error)
	Resolve(ctx context.Context, id string, at time.Time) error
	LastCreatedAt(ctx context.Context, modelName string, kind models.DriftKind) (time.Time, error)
}

type Config struct {
	Cooldown time.Duration
}

// Manager creates alerts with a per-(model, kind) cooldown so repeated
// detections of the same condition do not flood the store.
type Manager struct {
	config    Config
	store     Store
	publisher *events.Publisher

	keyLocks map[string]*sync.Mutex
	mu       sync.Mutex
}

func NewManager(cfg Config, store Store, publisher *events.Publisher) *Manager {
	if cfg.Cooldown == 0 {
		cfg.Cooldown = time.Hour
	}
	return &Manager{
		config:    cfg,
		store:     store,
		publisher: publisher,
		keyLocks:  make(map[string]*sync.Mutex),
	}
}

// Create persists a new unresolved alert unless an alert for the same
// (model, kind) was created within the cooldown, in which case it returns
// a suppressed outcome without persisting. The check and the write are
// atomic per key.
func (m *Manager) Create(ctx context.Context, modelName string, kind models.DriftKind, severity models.AlertSeverity, message string, metadata map[string]string) (*models.AlertOutcome, error) {
	if err := validation.ValidateModelName(modelName); err != nil {
		return nil, errs.Validationf("invalid model name: %v", err)
	}
	if message == "" {
		return nil, errs.Validationf("alert message must not be empty")
	}

	lock := m.lockFor(modelName + "/" + string(kind))
	lock.Lock()
	defer lock.Unlock()

	last, err := m.store.LastCreatedAt(ctx, modelName, kind)
	if err != nil {
		return nil, errs.Persistence("query last alert", err)
	}
	if !last.IsZero() {
		nextAllowed := last.Add(m.config.Cooldown)
		if time.Now().Before(nextAllowed) {
			metrics.Get().IncSuppressed(modelName)
			logger.WithModel(modelName).Debugf("Alert suppressed (%s), next allowed at %s", kind, nextAllowed.Format(time.RFC3339))
			return &models.AlertOutcome{Suppressed: true, NextAllowedAt: nextAllowed}, nil
		}
	}

	alert := models.NewDriftAlert(modelName, kind, severity, message)
	alert.Metadata = metadata
	if err := m.store.Create(ctx, alert); err != nil {
		return nil, errs.Persistence("create alert", err)
	}

	metrics.Get().IncAlert(modelName, string(kind))
	if m.publisher != nil {
		m.publisher.AlertCreated(alert)
	}
	logger.WithModel(modelName).Infof("Alert created: [%s] %s", severity, message)

	return &models.AlertOutcome{Alert: alert}, nil
}

// Active returns unresolved alerts, newest first. An empty modelName
// matches all models.
func (m *Manager) Active(ctx context.Context, modelName string) ([]*models.DriftAlert, error) {
	alerts, err := m.store.Active(ctx, modelName)
	if err != nil {
		return nil, errs.Persistence("list active alerts", err)
	}
	return alerts, nil
}

// Resolve marks the alert resolved. Resolving twice is a no-op.
func (m *Manager) Resolve(ctx context.Context, id string) error {
	if err := m.store.Resolve(ctx, id, time.Now()); err != nil {
		if isNotFound(err) {
			return errs.NotFoundf("alert %s not found", id)
		}
		return errs.Persistence("resolve alert", err)
	}

	if m.publisher != nil {
		m.publisher.AlertResolved(id)
	}
	return nil
}

func (m *Manager) lockFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.keyLocks[key] = lock
	}
	return lock
}
