package enrich

import (
	"context"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/profile"
)

// SourceResult is what one external source produced for a lead.
type SourceResult struct {
	Candidates []model.CandidateFact
	Signals    []model.PainSignal
}

// Source is one external lookup the orchestrator can spend a round on.
// Sources are consulted in registration order, one untried source per
// round, and only when Available reports they can act on the lead.
type Source interface {
	Name() string
	Available(p *model.LeadProfile) bool
	Gather(ctx context.Context, p *model.LeadProfile, gaps profile.Gaps) (*SourceResult, error)
}
