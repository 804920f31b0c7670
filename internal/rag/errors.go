package rag

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy of the retrieval core.
// Callers classify outcomes with errors.Is rather than string matching.
var (
	// ErrInvalidInput marks a caller error (empty text, malformed filter).
	// Rejected before any remote call and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable marks a remote provider failure — network,
	// auth, or rate limiting — for either embedding or answer generation.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNoRelevantContext is the terminal outcome when nothing in the
	// corpus (or the filtered subset) scores above the relevance threshold.
	// It is an expected result, not an internal failure.
	ErrNoRelevantContext = errors.New("no relevant documents found")

	// ErrDimensionMismatch marks a stored vector whose length disagrees with
	// the live embedder's dimensionality, e.g. after a model change.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// DimensionError reports the exact mismatch between a query vector and a
// stored candidate vector. It matches ErrDimensionMismatch via errors.Is.
type DimensionError struct {
	// DocumentID identifies the candidate whose vector did not fit.
	DocumentID int64
	// Want is the query vector length.
	Want int
	// Got is the stored vector length.
	Got int
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("document %d: embedding dimension mismatch: stored vector has %d dimensions, query has %d",
		e.DocumentID, e.Got, e.Want)
}

// Unwrap lets errors.Is(err, ErrDimensionMismatch) succeed.
func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }
