package profile

import (
	"go.uber.org/zap"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// Applyresult reports what a merge actually changed.
type ApplyResult struct {
	Filled  []string `json:"filled"`
	Skipped []string `json:"skipped"`
}

// ApplyCandidates merges candidate facts into a profile under fill-gap-only
// semantics: only fields that are currently unset are written, in candidate
// order. A candidate for an already-set field is skipped and reported, never
// applied — a value placed by a higher-trust source is not overwritten by a
// later, lower-trust round.
func ApplyCandidates(p *model.LeadProfile, candidates []model.CandidateFact) ApplyResult {
	var res ApplyResult
	for _, c := range candidates {
		if c.Value == "" {
			continue
		}
		spec := model.SpecFor(c.FieldKey)
		if spec == nil {
			zap.L().Debug("merge: unmapped field key", zap.String("key", c.FieldKey))
			continue
		}
		if spec.Get(p) != "" {
			res.Skipped = append(res.Skipped, c.FieldKey)
			continue
		}
		spec.Set(p, c.Value)
		res.Filled = append(res.Filled, c.FieldKey)
	}
	return res
}

// FillField sets a single field under the same fill-gap-only rule. It returns
// true when the field was empty and is now filled, false when the existing
// value was kept. Unknown keys return false.
func FillField(p *model.LeadProfile, key, value string) bool {
	if value == "" {
		return false
	}
	spec := model.SpecFor(key)
	if spec == nil {
		return false
	}
	if spec.Get(p) != "" {
		return false
	}
	spec.Set(p, value)
	return true
}
