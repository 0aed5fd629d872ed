package model

import (
	"errors"
	"fmt"
)

// NotFoundError indicates an unknown lead or fact id. It propagates to the
// caller immediately; no partial work is attempted.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AlreadyReviewedError indicates a decide() call on a fact that has left the
// pending state. The fact is unchanged.
type AlreadyReviewedError struct {
	FactID string
	Status FactStatus
}

func (e *AlreadyReviewedError) Error() string {
	return fmt.Sprintf("fact %s already reviewed (status %s)", e.FactID, e.Status)
}

// IsAlreadyReviewed reports whether err wraps an AlreadyReviewedError.
func IsAlreadyReviewed(err error) bool {
	var ar *AlreadyReviewedError
	return errors.As(err, &ar)
}

// ValidationError indicates a profile is missing a required identifying
// field. Enrichment refuses to start; this is the only hard abort in the
// engine's error taxonomy.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
