// Package enrich drives bounded rounds of gap-driven source consultation
// for a lead profile. Each round spends exactly one untried source, merges
// what it found under fill-gap-only semantics, and never lets a source
// failure abort the run.
package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/opportunity"
	"github.com/ccrestaurant/lead-intel/internal/profile"
	"github.com/ccrestaurant/lead-intel/internal/review"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

const (
	// DefaultMaxRounds bounds one enrichment run.
	DefaultMaxRounds = 3
	// DefaultThreshold is the completeness percentage at which a profile
	// counts as converged.
	DefaultThreshold = 75
	// DefaultAutoApply is the confidence at or above which a candidate
	// fills the profile directly; anything below waits in the review queue.
	DefaultAutoApply = 0.70
	// DefaultSourceTimeout caps one external source call.
	DefaultSourceTimeout = 15 * time.Second
)

// Options tunes the orchestrator. Zero values take the defaults above.
type Options struct {
	MaxRounds     int           `mapstructure:"max_rounds"`
	Threshold     int           `mapstructure:"threshold"`
	AutoApply     float64       `mapstructure:"auto_apply"`
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
}

func (o Options) withDefaults() Options {
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.AutoApply <= 0 {
		o.AutoApply = DefaultAutoApply
	}
	if o.SourceTimeout <= 0 {
		o.SourceTimeout = DefaultSourceTimeout
	}
	return o
}

// Result is the outcome of one enrichment run. Round failures live in
// Errors; they never surface as a returned error.
type Result struct {
	LeadID             string       `json:"lead_id"`
	Rounds             int          `json:"rounds"`
	Converged          bool         `json:"converged"`
	CompletenessBefore int          `json:"completeness_before"`
	Completeness       int          `json:"completeness"`
	OpportunityScore   int          `json:"opportunity_score"`
	FieldsFilled       []string     `json:"fields_filled"`
	FactsQueued        int          `json:"facts_queued"`
	SignalsAdded       int          `json:"signals_added"`
	Errors             []RoundError `json:"errors"`
}

// Orchestrator runs enrichment for leads.
type Orchestrator struct {
	store   store.Store
	queue   *review.Queue
	sources []Source
	opts    Options
}

// NewOrchestrator creates an orchestrator. Sources are consulted in the
// order given; pass them cheapest and most trusted first.
func NewOrchestrator(s store.Store, q *review.Queue, opts Options, sources ...Source) *Orchestrator {
	return &Orchestrator{
		store:   s,
		queue:   q,
		sources: sources,
		opts:    opts.withDefaults(),
	}
}

// Enrich runs up to maxRounds enrichment rounds for the lead and persists
// the updated profile, signals, and opportunity analysis. maxRounds <= 0
// uses the configured default. Re-running on a converged profile is a
// no-op apart from the enrichment timestamp.
func (o *Orchestrator) Enrich(ctx context.Context, leadID string, maxRounds int) (*Result, error) {
	if maxRounds <= 0 {
		maxRounds = o.opts.MaxRounds
	}

	lead, err := o.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.CompanyName == "" {
		return nil, &model.ValidationError{Field: "company_name", Reason: "required for enrichment"}
	}

	result := &Result{
		LeadID:             leadID,
		CompletenessBefore: profile.Completeness(lead),
	}
	tried := make(map[string]bool)

	for round := 1; round <= maxRounds; round++ {
		lead.Completeness = profile.Completeness(lead)
		gaps := profile.Analyze(lead)
		if lead.Completeness >= o.opts.Threshold || !gaps.Actionable() {
			result.Converged = true
			break
		}

		src := o.nextSource(tried, lead)
		if src == nil {
			break
		}
		tried[src.Name()] = true
		result.Rounds++

		srcCtx, cancel := context.WithTimeout(ctx, o.opts.SourceTimeout)
		gathered, err := src.Gather(srcCtx, lead, gaps)
		cancel()
		if err != nil {
			re := classify(round, src.Name(), err)
			result.Errors = append(result.Errors, re)
			zap.L().Warn("enrichment round failed",
				zap.String("lead_id", leadID),
				zap.Int("round", round),
				zap.String("source", src.Name()),
				zap.String("kind", string(re.Kind)),
				zap.Error(err),
			)
			continue
		}

		if err := o.absorb(ctx, lead, gathered, result); err != nil {
			return nil, err
		}
	}

	lead.Completeness = profile.Completeness(lead)
	if !result.Converged {
		gaps := profile.Analyze(lead)
		if lead.Completeness >= o.opts.Threshold || !gaps.Actionable() {
			result.Converged = true
		}
	}
	result.Completeness = lead.Completeness

	signals, err := o.store.ListPainSignals(ctx, leadID)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: load signals")
	}
	analysis := opportunity.Score(lead, signals)
	lead.OpportunityScore = analysis.Score
	result.OpportunityScore = analysis.Score

	now := time.Now().UTC()
	lead.LastEnrichedAt = &now
	if err := o.store.UpdateLead(ctx, lead); err != nil {
		return nil, eris.Wrap(err, "enrich: persist lead")
	}
	if err := o.store.SaveAnalysis(ctx, &analysis); err != nil {
		return nil, eris.Wrap(err, "enrich: persist analysis")
	}

	zap.L().Info("enrichment complete",
		zap.String("lead_id", leadID),
		zap.Int("rounds", result.Rounds),
		zap.Bool("converged", result.Converged),
		zap.Int("completeness", result.Completeness),
		zap.Int("opportunity_score", result.OpportunityScore),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// nextSource returns the first untried source that can act on the lead.
func (o *Orchestrator) nextSource(tried map[string]bool, lead *model.LeadProfile) Source {
	for _, s := range o.sources {
		if tried[s.Name()] {
			continue
		}
		if !s.Available(lead) {
			continue
		}
		return s
	}
	return nil
}

// absorb merges one round's findings: confident candidates fill the profile
// directly, the rest queue for review, and pain signals accumulate with
// store-level dedup.
func (o *Orchestrator) absorb(ctx context.Context, lead *model.LeadProfile, gathered *SourceResult, result *Result) error {
	var confident, uncertain []model.CandidateFact
	for _, c := range gathered.Candidates {
		if c.Confidence >= o.opts.AutoApply {
			confident = append(confident, c)
		} else {
			uncertain = append(uncertain, c)
		}
	}

	applied := profile.ApplyCandidates(lead, confident)
	result.FieldsFilled = append(result.FieldsFilled, applied.Filled...)

	if len(uncertain) > 0 {
		facts, err := o.queue.Submit(ctx, lead.ID, uncertain)
		if err != nil {
			return eris.Wrap(err, "enrich: queue facts")
		}
		result.FactsQueued += len(facts)
	}

	if len(gathered.Signals) > 0 {
		added, err := o.store.AddPainSignals(ctx, lead.ID, gathered.Signals)
		if err != nil {
			return eris.Wrap(err, "enrich: store signals")
		}
		result.SignalsAdded += added
	}
	return nil
}
