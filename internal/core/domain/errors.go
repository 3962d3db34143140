package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrFileNotFound     = errors.New("file not found")
)

// FailureKind tags why an extraction failed.
type FailureKind string

const (
	FailureNetwork     FailureKind = "network"
	FailureUnsupported FailureKind = "unsupported"
	FailureUnavailable FailureKind = "unavailable"
	FailureTranscode   FailureKind = "transcode"
	FailureStorage     FailureKind = "storage"
	FailureUnknown     FailureKind = "unknown"
)

// ExtractionError is returned by extraction engines for any engine-side failure.
type ExtractionError struct {
	Kind FailureKind
	Err  error
}

// NewExtractionError wraps err with kind. A nil err yields nil.
func NewExtractionError(kind FailureKind, err error) error {
	if err == nil {
		return nil
	}
	var existing *ExtractionError
	if errors.As(err, &existing) {
		return err
	}
	return &ExtractionError{Kind: kind, Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction failed (%s)", e.Kind)
	}
	return e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FailureKindOf returns the failure kind carried by err, or FailureUnknown.
func FailureKindOf(err error) FailureKind {
	var extErr *ExtractionError
	if errors.As(err, &extErr) && extErr.Kind != "" {
		return extErr.Kind
	}
	return FailureUnknown
}
