package enrich

import (
	"context"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/profile"
	"github.com/ccrestaurant/lead-intel/pkg/assessor"
)

// assessorConfidence applies to owner names from parcel records. Registry
// data is accurate but often names a trustee or holding entity instead of
// the operator, so it sits below pattern-matched contact info.
const assessorConfidence = 0.85

var titleCaser = cases.Title(language.AmericanEnglish)

// AssessorSource looks the lead's address up in town assessor records to
// recover the property owner.
type AssessorSource struct {
	client assessor.Client
}

// NewAssessorSource creates an AssessorSource. A nil client makes the
// source permanently unavailable.
func NewAssessorSource(client assessor.Client) *AssessorSource {
	return &AssessorSource{client: client}
}

func (a *AssessorSource) Name() string { return "assessor" }

// Available requires a configured client and a street address to look up.
func (a *AssessorSource) Available(p *model.LeadProfile) bool {
	return a.client != nil && p.Address != ""
}

func (a *AssessorSource) Gather(ctx context.Context, p *model.LeadProfile, _ profile.Gaps) (*SourceResult, error) {
	rec, err := a.client.LookupParcel(ctx, p.Address, p.Town)
	if err != nil {
		return nil, err
	}
	if !rec.Matched || rec.Owner == "" {
		return &SourceResult{}, nil
	}

	return &SourceResult{
		Candidates: []model.CandidateFact{
			{
				FieldKey:   model.FieldOwnerName,
				Value:      titleCaser.String(rec.Owner),
				Confidence: assessorConfidence,
				SourceText: "parcel " + rec.ParcelID,
				Source:     a.Name(),
			},
		},
	}, nil
}
