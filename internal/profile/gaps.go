package profile

import "github.com/ccrestaurant/lead-intel/internal/model"

// Gaps lists a profile's unset fields and the subset worth chasing.
type Gaps struct {
	Missing    []string `json:"missing"`
	Searchable []string `json:"searchable"`
}

// Analyze returns the profile's missing fields in schema order. Searchable is
// Missing intersected with the schema's fixed allowlist of fields that are
// cost-effective to resolve via external lookup; the orchestrator stops early
// once it is empty, even when Missing is not.
func Analyze(p *model.LeadProfile) Gaps {
	var g Gaps
	for _, f := range model.Schema {
		if f.Get(p) != "" {
			continue
		}
		g.Missing = append(g.Missing, f.Key)
		if f.Searchable {
			g.Searchable = append(g.Searchable, f.Key)
		}
	}
	return g
}

// Actionable reports whether any searchable gap remains.
func (g Gaps) Actionable() bool {
	return len(g.Searchable) > 0
}
