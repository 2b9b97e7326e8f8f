package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "validation", err: Validationf("bad input %d", 42), sentinel: ErrValidation},
		{name: "not found", err: NotFoundf("model %s", "churn"), sentinel: ErrNotFound},
		{name: "missing reference", err: MissingReferencef("model %s", "churn"), sentinel: ErrMissingReference},
		{name: "insufficient data", err: InsufficientDataf("got %d samples", 3), sentinel: ErrInsufficientData},
		{name: "persistence", err: Persistence("insert", errors.New("disk full")), sentinel: ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			// Each category matches only its own sentinel.
			for _, other := range tests {
				if other.sentinel != tt.sentinel {
					assert.NotErrorIs(t, tt.err, other.sentinel)
				}
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := Validationf("split must be between 0 and 1, got %.2f", 1.50)
	assert.Contains(t, err.Error(), "validation error")
	assert.Contains(t, err.Error(), "1.50")

	err = Persistence("create alert", errors.New("connection refused"))
	assert.Contains(t, err.Error(), "create alert")
	assert.Contains(t, err.Error(), "connection refused")
}
