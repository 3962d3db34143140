package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewExtractionError(t *testing.T) {
	assert.Nil(t, NewExtractionError(FailureNetwork, nil))

	cause := errors.New("connection reset by peer")
	err := NewExtractionError(FailureNetwork, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection reset by peer", err.Error())
	assert.Equal(t, FailureNetwork, FailureKindOf(err))
}

func TestNewExtractionErrorKeepsInnerKind(t *testing.T) {
	inner := NewExtractionError(FailureTranscode, errors.New("ffmpeg exited 1"))
	wrapped := fmt.Errorf("audio step: %w", inner)

	err := NewExtractionError(FailureStorage, wrapped)

	assert.Equal(t, FailureTranscode, FailureKindOf(err))
	assert.Same(t, wrapped, err)
}

func TestFailureKindOfPlainError(t *testing.T) {
	assert.Equal(t, FailureUnknown, FailureKindOf(errors.New("boom")))
	assert.Equal(t, FailureUnknown, FailureKindOf(nil))
	assert.Equal(t, FailureUnknown, FailureKindOf(&ExtractionError{Err: errors.New("x")}))
}

func TestExtractionErrorWithoutCause(t *testing.T) {
	err := &ExtractionError{Kind: FailureUnavailable}
	assert.Equal(t, "extraction failed (unavailable)", err.Error())
	assert.Nil(t, err.Unwrap())
}
