package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/mlforge/modelops/internal/events"
	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/pkg/errs"
	"github.com/mlforge/modelops/pkg/models"
	"github.com/mlforge/modelops/pkg/validation"
)

// Store persists model version metadata. Implementations return
// errs.ErrNotFound for missing entries and errs.ErrPersistence for storage
// failures.
type Store interface {
	Create(ctx context.Context, mv *models.ModelVersion) error
	Get(ctx context.Context, modelName, version string) (*models.ModelVersion, error)
	GetActive(ctx context.Context, modelName string) (*models.ModelVersion, error)
	List(ctx context.Context, modelName string) ([]*models.ModelVersion, error)
	SetActive(ctx context.Context, modelName, version string) error
}

// RegisterInput carries the metadata accompanying an artifact at
// registration time.
type RegisterInput struct {
	ModelName          string
	Version            string
	Kind               models.ModelKind
	Metrics            map[string]float64
	Description        string
	TrainingDataDigest string
}

// Registry is the versioned store and activation authority for model
// artifacts. Activation serializes per model name; different models may
// activate concurrently.
type Registry struct {
	store     Store
	artifacts ArtifactStore
	publisher *events.Publisher

	activateMu sync.Mutex
	modelLocks map[string]*sync.Mutex
}

func New(store Store, artifacts ArtifactStore, publisher *events.Publisher) *Registry {
	return &Registry{
		store:      store,
		artifacts:  artifacts,
		publisher:  publisher,
		modelLocks: make(map[string]*sync.Mutex),
	}
}

// Fingerprint computes the content digest used to prove artifact integrity.
func Fingerprint(artifact []byte) string {
	sum := sha256.Sum256(artifact)
	return hex.EncodeToString(sum[:])
}

// Register stores the artifact and its metadata as a new inactive version.
// Re-registering identical content for an existing (name, version) is
// idempotent; differing content is rejected to prevent silent overwrite.
func (r *Registry) Register(ctx context.Context, artifact []byte, input RegisterInput) (*models.ModelVersion, error) {
	if err := validation.ValidateModelName(input.ModelName); err != nil {
		return nil, errs.Validationf("model name: %v", err)
	}
	if err := validation.ValidateVersion(input.Version); err != nil {
		return nil, errs.Validationf("version: %v", err)
	}
	if len(artifact) == 0 {
		return nil, errs.Validationf("artifact is empty")
	}

	digest := Fingerprint(artifact)

	existing, err := r.store.Get(ctx, input.ModelName, input.Version)
	if err == nil {
		if existing.SameContent(digest) {
			return existing, nil
		}
		return nil, errs.Validationf(
			"model %s version %s already registered with different content",
			input.ModelName, input.Version,
		)
	}
	if !isNotFound(err) {
		return nil, err
	}

	location, err := r.artifacts.Store(artifact)
	if err != nil {
		return nil, errs.Persistence("store artifact", err)
	}

	mv := models.NewModelVersion(input.ModelName, input.Version, input.Kind)
	mv.ArtifactLocation = location
	mv.ArtifactDigest = digest
	mv.TrainingDataDigest = input.TrainingDataDigest
	mv.Metrics = input.Metrics
	mv.Description = input.Description

	if err := r.store.Create(ctx, mv); err != nil {
		return nil, err
	}

	metrics.Get().IncRegistration(mv.ModelName)
	if r.publisher != nil {
		r.publisher.ModelRegistered(mv)
	}

	logger.WithModel(mv.ModelName).Infof(
		"Registered version %s (digest %s)", mv.Version, digest[:12],
	)

	return mv, nil
}

// Get returns the artifact bytes and metadata for the requested version, or
// for the currently active version when version is empty.
func (r *Registry) Get(ctx context.Context, modelName, version string) ([]byte, *models.ModelVersion, error) {
	var mv *models.ModelVersion
	var err error

	if version == "" {
		mv, err = r.store.GetActive(ctx, modelName)
	} else {
		mv, err = r.store.Get(ctx, modelName, version)
	}
	if err != nil {
		return nil, nil, err
	}

	artifact, err := r.artifacts.Load(mv.ArtifactLocation)
	if err != nil {
		return nil, nil, errs.Persistence("load artifact", err)
	}

	return artifact, mv, nil
}

// List returns metadata only, optionally filtered by model name.
func (r *Registry) List(ctx context.Context, modelName string) ([]*models.ModelVersion, error) {
	return r.store.List(ctx, modelName)
}

// SetActive atomically deactivates every other version of the model and
// activates the target. Concurrent calls for the same model serialize.
func (r *Registry) SetActive(ctx context.Context, modelName, version string) error {
	lock := r.lockFor(modelName)
	lock.Lock()
	defer lock.Unlock()

	if err := r.store.SetActive(ctx, modelName, version); err != nil {
		return err
	}

	metrics.Get().IncActivation(modelName)
	if r.publisher != nil {
		r.publisher.ModelActivated(modelName, version)
	}

	logger.WithModel(modelName).Infof("Activated version %s", version)
	return nil
}

func (r *Registry) lockFor(modelName string) *sync.Mutex {
	r.activateMu.Lock()
	defer r.activateMu.Unlock()

	lock, ok := r.modelLocks[modelName]
	if !ok {
		lock = &sync.Mutex{}
		r.modelLocks[modelName] = lock
	}
	return lock
}
