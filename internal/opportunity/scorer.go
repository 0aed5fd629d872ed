// Package opportunity derives a sales-opportunity score and recommendations
// from an enriched lead profile and its pain signals.
package opportunity

import (
	"fmt"
	"strings"
	"time"

	"github.com/ccrestaurant/lead-intel/internal/extract"
	"github.com/ccrestaurant/lead-intel/internal/model"
)

// Scoring constants. The score starts at a neutral base and accumulates
// fixed factor weights; it is clipped to [0,100].
const (
	baseScore = 50

	noPOSWeight     = 15
	legacyPOSWeight = 10
	noOrderingWeight = 12

	painSignalWeight = 5
	painSignalCap    = 15
)

// Score regenerates the full OpportunityAnalysis from the current profile
// and signals. It is pure and deterministic apart from the ComputedAt stamp:
// nothing is patched incrementally, so repeated runs cannot drift.
func Score(p *model.LeadProfile, signals []model.PainSignal) model.OpportunityAnalysis {
	a := model.OpportunityAnalysis{
		LeadID:     p.ID,
		Score:      baseScore,
		ComputedAt: time.Now().UTC(),
	}
	addFactor := func(label string, weight int) {
		a.Factors = append(a.Factors, model.Factor{Label: label, Weight: weight})
		a.Score += weight
	}

	switch {
	case p.POSSystem == "":
		addFactor("No POS system on record", noPOSWeight)
		a.Recommendations = append(a.Recommendations, "Offer POS consultation and live demo")
	case isLegacyPOS(p.POSSystem):
		addFactor(fmt.Sprintf("Legacy POS system (%s)", p.POSSystem), legacyPOSWeight)
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("Pitch migration from %s to a modern cloud POS", p.POSSystem))
	}

	if p.OnlineOrdering == "" {
		addFactor("No online ordering channel", noOrderingWeight)
		a.Recommendations = append(a.Recommendations, "Propose online ordering setup")
	}

	if n := distinctSignals(signals); n > 0 {
		weight := n * painSignalWeight
		if weight > painSignalCap {
			weight = painSignalCap
		}
		addFactor(fmt.Sprintf("%d operational pain signal(s)", n), weight)
		a.Recommendations = append(a.Recommendations, recommendForSignals(signals)...)
	}

	if a.Score > 100 {
		a.Score = 100
	}
	if a.Score < 0 {
		a.Score = 0
	}
	return a
}

// isLegacyPOS checks the vendor against the pattern package's legacy list.
func isLegacyPOS(pos string) bool {
	for _, v := range extract.LegacyPOSVendors {
		if strings.EqualFold(pos, v) {
			return true
		}
	}
	return false
}

// distinctSignals counts signals after (type, description) dedup, matching
// the accumulation rule on the profile.
func distinctSignals(signals []model.PainSignal) int {
	seen := make(map[string]bool, len(signals))
	for _, s := range signals {
		seen[s.Key()] = true
	}
	return len(seen)
}

// signalRecommendations maps pain types to the pitch they justify.
var signalRecommendations = map[string]string{
	model.PainCashOnly:         "Lead with card processing and its revenue lift",
	model.PainNoOnlineOrdering: "Propose online ordering setup",
	model.PainOutdatedPOS:      "Offer POS consultation and live demo",
	model.PainManualTickets:    "Demo kitchen display system replacing paper tickets",
	model.PainPhoneOrdersOnly:  "Quantify labor cost of phone-only ordering",
	model.PainUnderstaffed:     "Highlight labor-saving automations",
	model.PainLongWaits:        "Suggest waitlist and table management tooling",
}

func recommendForSignals(signals []model.PainSignal) []string {
	var recs []string
	seen := make(map[string]bool)
	for _, s := range signals {
		rec, ok := signalRecommendations[s.Type]
		if !ok || seen[rec] {
			continue
		}
		seen[rec] = true
		recs = append(recs, rec)
	}
	return recs
}
