package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

func newTestRegistry() *Registry {
	return New(NewMemoryStore(), NewMemoryArtifactStore(), nil)
}

func validInput() RegisterInput {
	return RegisterInput{
		ModelName: "churn-model",
		Version:   "1.0.0",
		Kind:      models.ModelKindClassification,
		Metrics:   map[string]float64{"accuracy": 0.92},
	}
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	mv, err := r.Register(ctx, []byte("weights"), validInput())

	require.NoError(t, err)
	assert.Equal(t, "churn-model", mv.ModelName)
	assert.Equal(t, "1.0.0", mv.Version)
	assert.Equal(t, Fingerprint([]byte("weights")), mv.ArtifactDigest)
	assert.False(t, mv.Active)
	assert.NotEmpty(t, mv.ArtifactLocation)
}

func TestRegistry_Register_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		artifact []byte
		mutate   func(in *RegisterInput)
	}{
		{
			name:     "invalid model name",
			artifact: []byte("weights"),
			mutate:   func(in *RegisterInput) { in.ModelName = "bad name!" },
		},
		{
			name:     "invalid version",
			artifact: []byte("weights"),
			mutate:   func(in *RegisterInput) { in.Version = "not a version" },
		},
		{
			name:     "empty artifact",
			artifact: nil,
			mutate:   func(in *RegisterInput) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			in := validInput()
			tt.mutate(&in)

			_, err := r.Register(ctx, tt.artifact, in)

			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestRegistry_Register_IdempotentForSameContent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	first, err := r.Register(ctx, []byte("weights"), validInput())
	require.NoError(t, err)

	second, err := r.Register(ctx, []byte("weights"), validInput())

	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	versions, err := r.List(ctx, "churn-model")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestRegistry_Register_RejectsDifferentContent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_, err := r.Register(ctx, []byte("weights"), validInput())
	require.NoError(t, err)

	_, err = r.Register(ctx, []byte("other weights"), validInput())

	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRegistry_Get(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_, err := r.Register(ctx, []byte("weights"), validInput())
	require.NoError(t, err)

	artifact, mv, err := r.Get(ctx, "churn-model", "1.0.0")

	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), artifact)
	assert.Equal(t, "1.0.0", mv.Version)

	_, _, err = r.Get(ctx, "churn-model", "9.9.9")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRegistry_Get_ActiveVersion(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_, err := r.Register(ctx, []byte("weights v1"), validInput())
	require.NoError(t, err)

	// No active version yet.
	_, _, err = r.Get(ctx, "churn-model", "")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, r.SetActive(ctx, "churn-model", "1.0.0"))

	artifact, mv, err := r.Get(ctx, "churn-model", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("weights v1"), artifact)
	assert.True(t, mv.Active)
}

func TestRegistry_SetActive_ExactlyOneActive(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	in := validInput()
	_, err := r.Register(ctx, []byte("weights v1"), in)
	require.NoError(t, err)

	in.Version = "2.0.0"
	_, err = r.Register(ctx, []byte("weights v2"), in)
	require.NoError(t, err)

	require.NoError(t, r.SetActive(ctx, "churn-model", "1.0.0"))
	require.NoError(t, r.SetActive(ctx, "churn-model", "2.0.0"))

	versions, err := r.List(ctx, "churn-model")
	require.NoError(t, err)

	activeCount := 0
	for _, mv := range versions {
		if mv.Active {
			activeCount++
			assert.Equal(t, "2.0.0", mv.Version)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestRegistry_SetActive_NotFound(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	err := r.SetActive(ctx, "churn-model", "1.0.0")

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRegistry_List_FiltersByModel(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	in := validInput()
	_, err := r.Register(ctx, []byte("a"), in)
	require.NoError(t, err)

	in.ModelName = "fraud-model"
	_, err = r.Register(ctx, []byte("b"), in)
	require.NoError(t, err)

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := r.List(ctx, "fraud-model")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "fraud-model", only[0].ModelName)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("weights"))
	b := Fingerprint([]byte("weights"))
	c := Fingerprint([]byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
