// Package review implements the human fact-review queue: extracted facts
// wait as pending rows and only approved ones reach the lead profile.
package review

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/profile"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

// Queue manages pending facts and applies review decisions.
type Queue struct {
	store store.Store
}

// NewQueue creates a review queue backed by the given store.
func NewQueue(s store.Store) *Queue {
	return &Queue{store: s}
}

// Submit converts extracted candidates into pending facts for a lead.
// Returns the created facts.
func (q *Queue) Submit(ctx context.Context, leadID string, candidates []model.CandidateFact) ([]model.AtomicFact, error) {
	facts := make([]model.AtomicFact, 0, len(candidates))
	for _, c := range candidates {
		f := model.AtomicFact{
			LeadID:     leadID,
			FieldName:  c.FieldKey,
			FieldValue: c.Value,
			SourceText: c.SourceText,
			Source:     c.Source,
			Confidence: c.Confidence,
			Status:     model.FactPending,
		}
		if err := q.store.CreateFact(ctx, &f); err != nil {
			return facts, eris.Wrap(err, "review: submit fact")
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// DecisionResult reports the outcome of a review decision.
type DecisionResult struct {
	Fact *model.AtomicFact `json:"fact"`
	// Applied is true when an approved value landed on the profile. An
	// approved fact whose field was already set is recorded but not applied.
	Applied bool `json:"applied"`
}

// Decide applies an approve or reject decision to a pending fact. The
// transition is one-way: a fact that has already been decided returns
// AlreadyReviewedError no matter which way it went.
func (q *Queue) Decide(ctx context.Context, factID string, decision model.ReviewDecision, reason string) (*DecisionResult, error) {
	var status model.FactStatus
	switch decision {
	case model.DecisionApprove:
		status = model.FactApproved
	case model.DecisionReject:
		status = model.FactRejected
	default:
		return nil, &model.ValidationError{Field: "decision", Reason: "must be approve or reject"}
	}

	fact, err := q.store.GetFact(ctx, factID)
	if err != nil {
		return nil, err
	}
	if fact.Reviewed() {
		return nil, &model.AlreadyReviewedError{FactID: factID, Status: fact.Status}
	}

	now := time.Now().UTC()
	won, err := q.store.ReviewFact(ctx, factID, status, reason, now)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race to a concurrent decision.
		current, err := q.store.GetFact(ctx, factID)
		if err != nil {
			return nil, err
		}
		return nil, &model.AlreadyReviewedError{FactID: factID, Status: current.Status}
	}

	fact.Status = status
	fact.ReviewReason = reason
	fact.ReviewedAt = &now

	result := &DecisionResult{Fact: fact}
	if status == model.FactApproved {
		applied, err := q.applyApproved(ctx, fact)
		if err != nil {
			return nil, err
		}
		result.Applied = applied
	}

	zap.L().Info("fact reviewed",
		zap.String("fact_id", factID),
		zap.String("status", string(status)),
		zap.Bool("applied", result.Applied),
	)
	return result, nil
}

// applyApproved writes an approved fact's value onto the lead profile if
// the field is still open, then refreshes the completeness score.
func (q *Queue) applyApproved(ctx context.Context, fact *model.AtomicFact) (bool, error) {
	lead, err := q.store.GetLead(ctx, fact.LeadID)
	if err != nil {
		return false, err
	}

	if !profile.FillField(lead, fact.FieldName, fact.FieldValue) {
		zap.L().Debug("approved fact not applied, field already set",
			zap.String("fact_id", fact.ID),
			zap.String("field", fact.FieldName),
		)
		return false, nil
	}

	lead.Completeness = profile.Completeness(lead)
	if err := q.store.UpdateLead(ctx, lead); err != nil {
		return false, eris.Wrap(err, "review: apply approved fact")
	}
	return true, nil
}

// Pending lists pending facts, optionally scoped to one lead.
func (q *Queue) Pending(ctx context.Context, leadID string, limit int) ([]model.AtomicFact, error) {
	return q.store.ListFacts(ctx, store.FactFilter{
		Status: model.FactPending,
		LeadID: leadID,
		Limit:  limit,
	})
}
