// Package store provides persistence for lead profiles, atomic facts, pain
// signals and opportunity analyses.
package store

import (
	"context"
	"time"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// FactFilter specifies criteria for listing atomic facts.
type FactFilter struct {
	Status model.FactStatus `json:"status,omitempty"`
	LeadID string           `json:"lead_id,omitempty"`
	Limit  int              `json:"limit,omitempty"`
}

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence port for the enrichment engine. Exact table
// layout is an implementation detail; only the entity shapes are load-bearing.
type Store interface {
	// Leads. A LeadProfile is the root entity: deleting it cascades to its
	// facts, signals and analysis.
	CreateLead(ctx context.Context, p *model.LeadProfile) error
	GetLead(ctx context.Context, id string) (*model.LeadProfile, error)
	UpdateLead(ctx context.Context, p *model.LeadProfile) error
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadProfile, error)
	DeleteLead(ctx context.Context, id string) error

	// Facts. ReviewFact performs the guarded pending->status check-and-set;
	// it returns false (and no error) when the fact was not pending, which
	// the review queue surfaces as AlreadyReviewedError.
	CreateFact(ctx context.Context, f *model.AtomicFact) error
	GetFact(ctx context.Context, id string) (*model.AtomicFact, error)
	ReviewFact(ctx context.Context, id string, status model.FactStatus, reason string, reviewedAt time.Time) (bool, error)
	ListFacts(ctx context.Context, filter FactFilter) ([]model.AtomicFact, error)

	// Pain signals accumulate; duplicates by (lead, type, description) are
	// ignored at insert. Returns the number of signals actually added.
	AddPainSignals(ctx context.Context, leadID string, signals []model.PainSignal) (int, error)
	ListPainSignals(ctx context.Context, leadID string) ([]model.PainSignal, error)

	// Opportunity analysis is replaced whole on every enrichment cycle.
	SaveAnalysis(ctx context.Context, a *model.OpportunityAnalysis) error
	GetAnalysis(ctx context.Context, leadID string) (*model.OpportunityAnalysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
