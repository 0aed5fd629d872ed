package model

import "time"

// FactStatus is the review state of an AtomicFact.
type FactStatus string

// Fact review states. Transitions are one-way: pending -> approved|rejected.
const (
	FactPending  FactStatus = "pending"
	FactApproved FactStatus = "approved"
	FactRejected FactStatus = "rejected"
)

// AtomicFact is a single provenance-tagged candidate value awaiting (or past)
// human review. Facts are immutable after creation; the only mutation is the
// one-way status transition recorded by the review queue. Corrections are new
// facts, not edits.
type AtomicFact struct {
	ID         string     `json:"id" db:"id"`
	LeadID     string     `json:"lead_id" db:"lead_id"`
	FieldName  string     `json:"field_name" db:"field_name"`
	FieldValue string     `json:"field_value" db:"field_value"`
	SourceText string     `json:"source_text,omitempty" db:"source_text"`
	Source     string     `json:"source" db:"source"`
	Confidence float64    `json:"confidence" db:"confidence"`
	Status     FactStatus `json:"status" db:"status"`

	ReviewReason string     `json:"review_reason,omitempty" db:"review_reason"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Reviewed reports whether the fact has left the pending state.
func (f *AtomicFact) Reviewed() bool {
	return f.Status != FactPending
}

// ReviewDecision is the outcome requested for a pending fact.
type ReviewDecision string

// Review decisions.
const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)
