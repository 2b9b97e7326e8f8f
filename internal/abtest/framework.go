package abtest

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/mlforge/modelops/internal/events"
	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
	"github.com/mlforge/modelops/pkg/validation"

	"gonum.org/v1/gonum/stat/distuv"
)

// VersionResolver checks that the model versions under test exist.
type VersionResolver interface {
	Get(ctx context.Context, modelName, version string) ([]byte, *models.ModelVersion, error)
}

// Store persists tests and their recorded outcomes.
type Store interface {
	Create(ctx context.Context, test *models.ABTest) error
	Get(ctx context.Context, id string) (*models.ABTest, error)
	UpdateStatus(ctx context.Context, id string, status models.ABTestStatus) error
	AppendOutcome(ctx context.Context, testID string, outcome *models.ABOutcome) error
	Outcomes(ctx context.Context, testID string, variant models.Variant) ([]*models.ABOutcome, error)
}

type Config struct {
	SignificanceLevel   float64
	DefaultSplit        float64
	DefaultDurationDays int
}

// Framework runs A/B comparisons between two registered versions of a
// model with deterministic traffic assignment.
type Framework struct {
	config    Config
	store     Store
	resolver  VersionResolver
	publisher *events.Publisher
}

func NewFramework(cfg Config, store Store, resolver VersionResolver, publisher *events.Publisher) *Framework {
	if cfg.SignificanceLevel == 0 {
		cfg.SignificanceLevel = 0.05
	}
	if cfg.DefaultSplit == 0 {
		cfg.DefaultSplit = 0.5
	}
	if cfg.DefaultDurationDays == 0 {
		cfg.DefaultDurationDays = 7
	}
	return &Framework{config: cfg, store: store, resolver: resolver, publisher: publisher}
}

type CreateInput struct {
	Name         string
	ModelName    string
	VersionA     string
	VersionB     string
	TrafficSplit float64
	DurationDays int
}

// CreateTest validates the split, checks both versions against the
// registry, and persists the test as running. An omitted split or
// duration falls back to the configured defaults.
func (f *Framework) CreateTest(ctx context.Context, in CreateInput) (*models.ABTest, error) {
	if in.Name == "" {
		return nil, errs.Validationf("test name must not be empty")
	}
	if in.TrafficSplit == 0 {
		in.TrafficSplit = f.config.DefaultSplit
	}
	if in.DurationDays == 0 {
		in.DurationDays = f.config.DefaultDurationDays
	}
	if err := validation.ValidateTrafficSplit(in.TrafficSplit); err != nil {
		return nil, errs.Validationf("invalid traffic split: %v", err)
	}
	if in.DurationDays < 0 {
		return nil, errs.Validationf("duration must be positive, got %d days", in.DurationDays)
	}

	_, verA, err := f.resolver.Get(ctx, in.ModelName, in.VersionA)
	if err != nil {
		return nil, err
	}
	_, verB, err := f.resolver.Get(ctx, in.ModelName, in.VersionB)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	test := &models.ABTest{
		ID:           models.NewUUID(),
		Name:         in.Name,
		ModelAID:     verA.ID,
		ModelBID:     verB.ID,
		TrafficSplit: in.TrafficSplit,
		Status:       models.ABTestStatusRunning,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, in.DurationDays),
		CreatedAt:    now,
	}

	if err := f.store.Create(ctx, test); err != nil {
		return nil, errs.Persistence("create ab test", err)
	}

	if f.publisher != nil {
		f.publisher.ABTestCreated(test)
	}
	logger.WithTest(test.ID).Infof("A/B test %q created: %s vs %s, split %.2f", in.Name, in.VersionA, in.VersionB, in.TrafficSplit)

	return test, nil
}

// Assign looks up the test and maps the user to a variant.
func (f *Framework) Assign(ctx context.Context, testID, userID string) (models.Variant, error) {
	test, err := f.Get(ctx, testID)
	if err != nil {
		return "", err
	}

	variant := AssignWithSplit(testID, userID, test.TrafficSplit)
	metrics.Get().IncAssignment(testID, string(variant))
	return variant, nil
}

// AssignWithSplit maps a user to a variant given the test's traffic split.
// The mapping is a pure function of its arguments, so it is stable across
// processes and restarts.
func AssignWithSplit(testID, userID string, split float64) models.Variant {
	h := fnv.New32a()
	h.Write([]byte(testID + userID))
	if float64(h.Sum32()%100) < split*100 {
		return models.VariantA
	}
	return models.VariantB
}

// RecordOutcome appends one prediction outcome to the given variant.
func (f *Framework) RecordOutcome(ctx context.Context, testID string, variant models.Variant, prediction, actual, latencySeconds float64) error {
	if variant != models.VariantA && variant != models.VariantB {
		return errs.Validationf("unknown variant %q", variant)
	}

	if _, err := f.Get(ctx, testID); err != nil {
		return err
	}

	outcome := &models.ABOutcome{
		Variant:        variant,
		Prediction:     prediction,
		Actual:         actual,
		LatencySeconds: latencySeconds,
		Timestamp:      time.Now(),
	}
	if err := f.store.AppendOutcome(ctx, testID, outcome); err != nil {
		return errs.Persistence("append ab outcome", err)
	}
	return nil
}

// Get returns the test, mapping missing tests to a not-found error.
func (f *Framework) Get(ctx context.Context, testID string) (*models.ABTest, error) {
	test, err := f.store.Get(ctx, testID)
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NotFoundf("ab test %s not found", testID)
		}
		return nil, errs.Persistence("get ab test", err)
	}
	return test, nil
}

// Results computes per-variant metrics and a chi-square independence test
// over the correct/incorrect by variant contingency table.
func (f *Framework) Results(ctx context.Context, testID string) (*models.ABTestResults, error) {
	if _, err := f.Get(ctx, testID); err != nil {
		return nil, err
	}

	outcomesA, err := f.store.Outcomes(ctx, testID, models.VariantA)
	if err != nil {
		return nil, errs.Persistence("load variant A outcomes", err)
	}
	outcomesB, err := f.store.Outcomes(ctx, testID, models.VariantB)
	if err != nil {
		return nil, errs.Persistence("load variant B outcomes", err)
	}

	if len(outcomesA) == 0 || len(outcomesB) == 0 {
		return nil, errs.InsufficientDataf(
			"need outcomes for both variants, got A=%d B=%d",
			len(outcomesA), len(outcomesB),
		)
	}

	results := &models.ABTestResults{
		TestID:   testID,
		VariantA: summarize(models.VariantA, outcomesA),
		VariantB: summarize(models.VariantB, outcomesB),
	}

	results.ChiSquare, results.PValue = chiSquare2x2(outcomesA, outcomesB)
	results.IsSignificant = results.PValue < f.config.SignificanceLevel
	results.Recommendation = recommend(results)

	return results, nil
}

// Complete marks the test completed and publishes the final results.
func (f *Framework) Complete(ctx context.Context, testID string) (*models.ABTestResults, error) {
	test, err := f.Get(ctx, testID)
	if err != nil {
		return nil, err
	}

	results, err := f.Results(ctx, testID)
	if err != nil {
		return nil, err
	}

	if err := f.store.UpdateStatus(ctx, testID, models.ABTestStatusCompleted); err != nil {
		return nil, errs.Persistence("complete ab test", err)
	}
	test.Status = models.ABTestStatusCompleted

	if f.publisher != nil {
		f.publisher.ABTestCompleted(test, results)
	}
	logger.WithTest(testID).Infof("A/B test completed: %s", results.Recommendation)

	return results, nil
}

func summarize(variant models.Variant, outcomes []*models.ABOutcome) models.VariantMetrics {
	m := models.VariantMetrics{Variant: variant, SampleCount: len(outcomes)}

	var correct int
	var latency float64
	for _, o := range outcomes {
		if o.Correct() {
			correct++
		}
		latency += o.LatencySeconds
	}
	m.Accuracy = float64(correct) / float64(len(outcomes))
	m.AvgLatency = latency / float64(len(outcomes))
	return m
}

// chiSquare2x2 tests independence of correctness and variant. One degree
// of freedom; expected counts of zero yield a zero statistic.
func chiSquare2x2(a, b []*models.ABOutcome) (statistic, pValue float64) {
	var table [2][2]float64
	for _, o := range a {
		if o.Correct() {
			table[0][0]++
		} else {
			table[0][1]++
		}
	}
	for _, o := range b {
		if o.Correct() {
			table[1][0]++
		} else {
			table[1][1]++
		}
	}

	rowA := table[0][0] + table[0][1]
	rowB := table[1][0] + table[1][1]
	colCorrect := table[0][0] + table[1][0]
	colWrong := table[0][1] + table[1][1]
	total := rowA + rowB

	expected := [2][2]float64{
		{rowA * colCorrect / total, rowA * colWrong / total},
		{rowB * colCorrect / total, rowB * colWrong / total},
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if expected[i][j] == 0 {
				continue
			}
			diff := table[i][j] - expected[i][j]
			statistic += diff * diff / expected[i][j]
		}
	}

	dist := distuv.ChiSquared{K: 1}
	pValue = 1 - dist.CDF(statistic)
	return statistic, pValue
}

func recommend(r *models.ABTestResults) string {
	if !r.IsSignificant {
		return "No significant difference detected; extend the test duration"
	}

	a, b := r.VariantA, r.VariantB
	switch {
	case a.Accuracy > b.Accuracy:
		return fmt.Sprintf("Variant A wins: accuracy %.4f vs %.4f", a.Accuracy, b.Accuracy)
	case b.Accuracy > a.Accuracy:
		return fmt.Sprintf("Variant B wins: accuracy %.4f vs %.4f", b.Accuracy, a.Accuracy)
	case a.AvgLatency <= b.AvgLatency:
		return "Accuracy tied; variant A wins on latency"
	default:
		return "Accuracy tied; variant B wins on latency"
	}
}
