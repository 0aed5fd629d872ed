package model

import "time"

// Factor is one contribution to an opportunity score.
type Factor struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// OpportunityAnalysis is the derived sales-opportunity assessment for a lead.
// It is never patched incrementally: every enrichment cycle regenerates the
// whole analysis from the current profile and pain signals, so repeated runs
// cannot drift the score.
type OpportunityAnalysis struct {
	LeadID          string    `json:"lead_id" db:"lead_id"`
	Score           int       `json:"score" db:"score"`
	Factors         []Factor  `json:"factors" db:"factors"`
	Recommendations []string  `json:"recommendations" db:"recommendations"`
	ComputedAt      time.Time `json:"computed_at" db:"computed_at"`
}
