package profile

import "github.com/ccrestaurant/lead-intel/internal/model"

// DedupeSignals returns the signals from incoming that are not already
// present in existing, keyed by (type, description). Signals accumulate only;
// re-running enrichment over the same sources adds nothing.
func DedupeSignals(existing, incoming []model.PainSignal) []model.PainSignal {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s.Key()] = true
	}
	var fresh []model.PainSignal
	for _, s := range incoming {
		if seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		fresh = append(fresh, s)
	}
	return fresh
}
