// Package profile implements completeness scoring, gap analysis and the
// fill-gap-only merge policy for lead profiles.
package profile

import (
	"math"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// Completeness returns the weighted coverage of a profile as a percentage in
// [0,100]. It is a pure function of the profile and the schema weight table:
// no clock, no randomness, no side effects.
func Completeness(p *model.LeadProfile) int {
	total := 0
	set := 0
	for _, f := range model.Schema {
		total += f.Weight
		if f.Get(p) != "" {
			set += f.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(set) / float64(total)))
}
