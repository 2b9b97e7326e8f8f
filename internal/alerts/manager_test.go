package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

func TestManager_Create(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{}, NewMemoryStore(), nil)

	outcome, err := m.Create(ctx, "churn-model", models.DriftKindData, models.AlertSeverityWarning, "data drift detected", nil)

	require.NoError(t, err)
	assert.False(t, outcome.Suppressed)
	require.NotNil(t, outcome.Alert)
	assert.Equal(t, "churn-model", outcome.Alert.ModelName)
	assert.Equal(t, models.DriftKindData, outcome.Alert.Kind)
	assert.False(t, outcome.Alert.Resolved)
	assert.NotEmpty(t, outcome.Alert.ID)
}

func TestManager_Create_Validation(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{}, NewMemoryStore(), nil)

	tests := []struct {
		name      string
		modelName string
		message   string
	}{
		{name: "empty model name", modelName: "", message: "msg"},
		{name: "invalid model name", modelName: "bad name!", message: "msg"},
		{name: "empty message", modelName: "churn-model", message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(ctx, tt.modelName, models.DriftKindData, models.AlertSeverityWarning, tt.message, nil)

			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestManager_Create_CooldownSuppression(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{Cooldown: time.Hour}, NewMemoryStore(), nil)

	first, err := m.Create(ctx, "churn-model", models.DriftKindData, models.AlertSeverityWarning, "first", nil)
	require.NoError(t, err)
	require.False(t, first.Suppressed)

	second, err := m.Create(ctx, "churn-model", models.DriftKindData, models.AlertSeverityWarning, "second", nil)

	require.NoError(t, err)
	assert.True(t, second.Suppressed)
	assert.Nil(t, second.Alert)
	assert.WithinDuration(t, time.Now().Add(time.Hour), second.NextAllowedAt, 5*time.Second)

	active, err := m.Active(ctx, "churn-model")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestManager_Create_CooldownIsPerKind(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{Cooldown: time.Hour}, NewMemoryStore(), nil)

	_, err := m.Create(ctx, "churn-model", models.DriftKindData, models.AlertSeverityWarning, "data", nil)
	require.NoError(t, err)

	outcome, err := m.Create(ctx, "churn-model", models.DriftKindConcept, models.AlertSeverityCritical, "concept", nil)

	require.NoError(t, err)
	assert.False(t, outcome.Suppressed)
}

func TestManager_Create_CooldownIsPerModel(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{Cooldown: time.Hour}, NewMemoryStore(), nil)

	_, err := m.Create(ctx, "model-a", models.DriftKindData, models.AlertSeverityWarning, "a", nil)
	require.NoError(t, err)

	outcome, err := m.Create(ctx, "model-b", models.DriftKindData, models.AlertSeverityWarning, "b", nil)

	require.NoError(t, err)
	assert.False(t, outcome.Suppressed)
}

func TestManager_Create_CooldownExpires(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{Cooldown: 20 * time.Millisecond}, NewMemoryStore(), nil)

	_, err := m.Create(ctx, "churn-model", models.DriftKindData, models.AlertSeverityWarning, "first", nil)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	outcome, err := m.Create(ctx, "churn-model", models.DriftKindData, models.AlertSeverityWarning, "second", nil)

	require.NoError(t, err)
	assert.False(t, outcome.Suppressed)
}

func TestManager_Resolve(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{}, NewMemoryStore(), nil)

	outcome, err := m.Create(ctx, "churn-model", models.DriftKindData, models.AlertSeverityWarning, "drift", nil)
	require.NoError(t, err)

	require.NoError(t, m.Resolve(ctx, outcome.Alert.ID))

	active, err := m.Active(ctx, "churn-model")
	require.NoError(t, err)
	assert.Empty(t, active)

	// Resolving twice is a no-op.
	assert.NoError(t, m.Resolve(ctx, outcome.Alert.ID))
}

func TestManager_Resolve_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Config{}, NewMemoryStore(), nil)

	err := m.Resolve(ctx, "no-such-id")

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestManager_Active_FiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(Config{}, store, nil)

	_, err := m.Create(ctx, "model-a", models.DriftKindData, models.AlertSeverityWarning, "a1", nil)
	require.NoError(t, err)
	_, err = m.Create(ctx, "model-b", models.DriftKindConcept, models.AlertSeverityCritical, "b1", nil)
	require.NoError(t, err)
	_, err = m.Create(ctx, "model-a", models.DriftKindConcept, models.AlertSeverityCritical, "a2", nil)
	require.NoError(t, err)

	all, err := m.Active(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	only, err := m.Active(ctx, "model-a")
	require.NoError(t, err)
	assert.Len(t, only, 2)
	for _, alert := range only {
		assert.Equal(t, "model-a", alert.ModelName)
	}
}

func TestMemoryStore_LastCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	last, err := store.LastCreatedAt(ctx, "churn-model", models.DriftKindData)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	alert := models.NewDriftAlert("churn-model", models.DriftKindData, models.AlertSeverityWarning, "msg")
	require.NoError(t, store.Create(ctx, alert))

	last, err = store.LastCreatedAt(ctx, "churn-model", models.DriftKindData)
	require.NoError(t, err)
	assert.False(t, last.IsZero())

	// A different kind is tracked separately.
	other, err := store.LastCreatedAt(ctx, "churn-model", models.DriftKindConcept)
	require.NoError(t, err)
	assert.True(t, other.IsZero())
}
