package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	nf := &NotFoundError{Entity: "lead", ID: "abc"}
	ar := &AlreadyReviewedError{FactID: "f1", Status: FactApproved}
	ve := &ValidationError{Field: FieldCompanyName, Reason: "required"}

	assert.True(t, IsNotFound(nf))
	assert.True(t, IsAlreadyReviewed(ar))
	assert.True(t, IsValidation(ve))

	// Classification survives eris wrapping.
	assert.True(t, IsNotFound(eris.Wrap(nf, "store: get lead")))
	assert.True(t, IsAlreadyReviewed(eris.Wrap(ar, "review: decide")))

	assert.False(t, IsNotFound(ar))
	assert.False(t, IsAlreadyReviewed(nf))
	assert.False(t, IsValidation(nf))
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&NotFoundError{Entity: "fact", ID: "x1"}).Error(), "fact not found: x1")
	assert.Contains(t, (&AlreadyReviewedError{FactID: "f", Status: FactRejected}).Error(), "rejected")
	assert.Contains(t, (&ValidationError{Field: "company_name", Reason: "required"}).Error(), "company_name")
}
