package abtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
)

type stubResolver struct {
	versions map[string]*models.ModelVersion
}

func newStubResolver(versions ...string) *stubResolver {
	r := &stubResolver{versions: make(map[string]*models.ModelVersion)}
	for _, v := range versions {
		r.versions[v] = models.NewModelVersion("churn-model", v, models.ModelKindClassification)
	}
	return r
}

func (r *stubResolver) Get(_ context.Context, _, version string) ([]byte, *models.ModelVersion, error) {
	mv, ok := r.versions[version]
	if !ok {
		return nil, nil, errs.NotFoundf("version %s not found", version)
	}
	return []byte("artifact"), mv, nil
}

func newTestFramework(t *testing.T) *Framework {
	t.Helper()
	return NewFramework(Config{}, NewMemoryStore(), newStubResolver("1.0.0", "2.0.0"), nil)
}

func validCreateInput() CreateInput {
	return CreateInput{
		Name:         "churn v2 rollout",
		ModelName:    "churn-model",
		VersionA:     "1.0.0",
		VersionB:     "2.0.0",
		TrafficSplit: 0.5,
		DurationDays: 14,
	}
}

func TestFramework_CreateTest(t *testing.T) {
	f := newTestFramework(t)

	test, err := f.CreateTest(context.Background(), validCreateInput())

	require.NoError(t, err)
	assert.NotEmpty(t, test.ID)
	assert.Equal(t, models.ABTestStatusRunning, test.Status)
	assert.NotEqual(t, test.ModelAID, test.ModelBID)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), test.EndDate, 5*time.Second)
}

func TestFramework_CreateTest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CreateInput)
		wantErr error
	}{
		{
			name:    "empty name",
			mutate:  func(in *CreateInput) { in.Name = "" },
			wantErr: errs.ErrValidation,
		},
		{
			name:    "negative split",
			mutate:  func(in *CreateInput) { in.TrafficSplit = -0.1 },
			wantErr: errs.ErrValidation,
		},
		{
			name:    "split at one",
			mutate:  func(in *CreateInput) { in.TrafficSplit = 1 },
			wantErr: errs.ErrValidation,
		},
		{
			name:    "negative duration",
			mutate:  func(in *CreateInput) { in.DurationDays = -3 },
			wantErr: errs.ErrValidation,
		},
		{
			name:    "unknown version",
			mutate:  func(in *CreateInput) { in.VersionB = "9.9.9" },
			wantErr: errs.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFramework(t)
			in := validCreateInput()
			tt.mutate(&in)

			_, err := f.CreateTest(context.Background(), in)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFramework_CreateTest_AppliesDefaults(t *testing.T) {
	f := newTestFramework(t)
	in := validCreateInput()
	in.TrafficSplit = 0
	in.DurationDays = 0

	test, err := f.CreateTest(context.Background(), in)

	require.NoError(t, err)
	assert.InDelta(t, 0.5, test.TrafficSplit, 1e-9)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), test.EndDate, 5*time.Second)
}

func TestFramework_CreateTest_ConfiguredDefaults(t *testing.T) {
	f := NewFramework(
		Config{DefaultSplit: 0.2, DefaultDurationDays: 30},
		NewMemoryStore(), newStubResolver("1.0.0", "2.0.0"), nil,
	)
	in := validCreateInput()
	in.TrafficSplit = 0
	in.DurationDays = 0

	test, err := f.CreateTest(context.Background(), in)

	require.NoError(t, err)
	assert.InDelta(t, 0.2, test.TrafficSplit, 1e-9)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), test.EndDate, 5*time.Second)
}

func TestFramework_Results_SignificanceLevelConfigurable(t *testing.T) {
	ctx := context.Background()
	// A strict level turns a borderline difference non-significant.
	f := NewFramework(
		Config{SignificanceLevel: 1e-12},
		NewMemoryStore(), newStubResolver("1.0.0", "2.0.0"), nil,
	)
	test, err := f.CreateTest(ctx, validCreateInput())
	require.NoError(t, err)

	recordBatch(t, f, test.ID, models.VariantA, 100, 90, 0.05)
	recordBatch(t, f, test.ID, models.VariantB, 100, 50, 0.05)

	results, err := f.Results(ctx, test.ID)

	require.NoError(t, err)
	assert.False(t, results.IsSignificant)
	assert.Contains(t, results.Recommendation, "extend the test")
}

func TestAssignWithSplit_Deterministic(t *testing.T) {
	first := AssignWithSplit("test-1", "user-42", 0.5)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AssignWithSplit("test-1", "user-42", 0.5))
	}
}

func TestAssignWithSplit_RespectsSplit(t *testing.T) {
	tests := []struct {
		name  string
		split float64
		// acceptable share of users landing on A
		minA float64
		maxA float64
	}{
		{name: "even split", split: 0.5, minA: 0.4, maxA: 0.6},
		{name: "canary split", split: 0.1, minA: 0.03, maxA: 0.2},
		{name: "heavy split", split: 0.9, minA: 0.8, maxA: 0.97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			countA := 0
			const users = 2000
			for i := 0; i < users; i++ {
				if AssignWithSplit("test-split", userID(i), tt.split) == models.VariantA {
					countA++
				}
			}

			share := float64(countA) / users
			assert.GreaterOrEqual(t, share, tt.minA)
			assert.LessOrEqual(t, share, tt.maxA)
		})
	}
}

func userID(i int) string {
	return "user-" + string(rune('a'+i%26)) + "-" + models.NewUUID()[:8]
}

func TestFramework_Assign(t *testing.T) {
	ctx := context.Background()
	f := newTestFramework(t)
	test, err := f.CreateTest(ctx, validCreateInput())
	require.NoError(t, err)

	variant, err := f.Assign(ctx, test.ID, "user-1")

	require.NoError(t, err)
	assert.Contains(t, []models.Variant{models.VariantA, models.VariantB}, variant)

	_, err = f.Assign(ctx, "no-such-test", "user-1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFramework_RecordOutcome(t *testing.T) {
	ctx := context.Background()
	f := newTestFramework(t)
	test, err := f.CreateTest(ctx, validCreateInput())
	require.NoError(t, err)

	require.NoError(t, f.RecordOutcome(ctx, test.ID, models.VariantA, 1, 1, 0.05))

	err = f.RecordOutcome(ctx, test.ID, "C", 1, 1, 0.05)
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = f.RecordOutcome(ctx, "no-such-test", models.VariantA, 1, 1, 0.05)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFramework_Results_InsufficientData(t *testing.T) {
	ctx := context.Background()
	f := newTestFramework(t)
	test, err := f.CreateTest(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = f.Results(ctx, test.ID)
	assert.ErrorIs(t, err, errs.ErrInsufficientData)

	// Outcomes for one variant only are still insufficient.
	require.NoError(t, f.RecordOutcome(ctx, test.ID, models.VariantA, 1, 1, 0.05))
	_, err = f.Results(ctx, test.ID)
	assert.ErrorIs(t, err, errs.ErrInsufficientData)
}

// recordBatch writes n outcomes of which correct are scored right.
func recordBatch(t *testing.T, f *Framework, testID string, variant models.Variant, n, correct int, latency float64) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		actual := 1.0
		prediction := 1.0
		if i >= correct {
			prediction = 0.0
		}
		require.NoError(t, f.RecordOutcome(ctx, testID, variant, prediction, actual, latency))
	}
}

func TestFramework_Results_SignificantDifference(t *testing.T) {
	ctx := context.Background()
	f := newTestFramework(t)
	test, err := f.CreateTest(ctx, validCreateInput())
	require.NoError(t, err)

	recordBatch(t, f, test.ID, models.VariantA, 100, 90, 0.05)
	recordBatch(t, f, test.ID, models.VariantB, 100, 50, 0.05)

	results, err := f.Results(ctx, test.ID)

	require.NoError(t, err)
	assert.True(t, results.IsSignificant)
	assert.Less(t, results.PValue, 0.05)
	assert.InDelta(t, 0.9, results.VariantA.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, results.VariantB.Accuracy, 1e-9)
	assert.Contains(t, results.Recommendation, "Variant A wins")
}

func TestFramework_Results_NoDifference(t *testing.T) {
	ctx := context.Background()
	f := newTestFramework(t)
	test, err := f.CreateTest(ctx, validCreateInput())
	require.NoError(t, err)

	recordBatch(t, f, test.ID, models.VariantA, 100, 80, 0.05)
	recordBatch(t, f, test.ID, models.VariantB, 100, 80, 0.05)

	results, err := f.Results(ctx, test.ID)

	require.NoError(t, err)
	assert.False(t, results.IsSignificant)
	assert.Contains(t, results.Recommendation, "extend the test")
}

func TestFramework_Complete(t *testing.T) {
	ctx := context.Background()
	f := newTestFramework(t)
	test, err := f.CreateTest(ctx, validCreateInput())
	require.NoError(t, err)

	recordBatch(t, f, test.ID, models.VariantA, 50, 45, 0.05)
	recordBatch(t, f, test.ID, models.VariantB, 50, 20, 0.05)

	results, err := f.Complete(ctx, test.ID)

	require.NoError(t, err)
	assert.NotEmpty(t, results.Recommendation)

	got, err := f.Get(ctx, test.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ABTestStatusCompleted, got.Status)
}

func TestChiSquare2x2(t *testing.T) {
	makeOutcomes := func(n, correct int) []*models.ABOutcome {
		out := make([]*models.ABOutcome, n)
		for i := range out {
			o := &models.ABOutcome{Actual: 1, Prediction: 1}
			if i >= correct {
				o.Prediction = 0
			}
			out[i] = o
		}
		return out
	}

	t.Run("identical variants", func(t *testing.T) {
		stat, p := chiSquare2x2(makeOutcomes(100, 80), makeOutcomes(100, 80))

		assert.InDelta(t, 0.0, stat, 1e-9)
		assert.InDelta(t, 1.0, p, 1e-9)
	})

	t.Run("strong difference", func(t *testing.T) {
		stat, p := chiSquare2x2(makeOutcomes(100, 95), makeOutcomes(100, 40))

		assert.Greater(t, stat, 10.0)
		assert.Less(t, p, 0.001)
	})
}
