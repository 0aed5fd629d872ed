package enrich

import (
	"context"
	"strconv"
	"strings"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/profile"
	"github.com/ccrestaurant/lead-intel/pkg/license"
)

// licenseConfidence applies to municipal registry rows matched by business
// name. Registries are authoritative for license and seating data.
const licenseConfidence = 0.90

// LicenseSource looks the lead up in the municipal food and liquor license
// registry.
type LicenseSource struct {
	client license.Client
}

// NewLicenseSource creates a LicenseSource. A nil client makes the source
// permanently unavailable.
func NewLicenseSource(client license.Client) *LicenseSource {
	return &LicenseSource{client: client}
}

func (l *LicenseSource) Name() string { return "license_registry" }

// Available requires a configured client; lookups key on company name.
func (l *LicenseSource) Available(_ *model.LeadProfile) bool {
	return l.client != nil
}

func (l *LicenseSource) Gather(ctx context.Context, p *model.LeadProfile, _ profile.Gaps) (*SourceResult, error) {
	records, err := l.client.FindLicenses(ctx, p.CompanyName, p.Town)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &SourceResult{}, nil
	}

	rec := records[0]
	result := &SourceResult{
		Candidates: []model.CandidateFact{
			{
				FieldKey:   model.FieldLicenseInfo,
				Value:      formatLicense(rec),
				Confidence: licenseConfidence,
				SourceText: "registry record " + rec.LicenseNumber,
				Source:     l.Name(),
			},
		},
	}

	if rec.SeatingCap > 0 {
		result.Candidates = append(result.Candidates, model.CandidateFact{
			FieldKey:   model.FieldSeatingCapacity,
			Value:      strconv.Itoa(rec.SeatingCap),
			Confidence: licenseConfidence,
			SourceText: "registry record " + rec.LicenseNumber,
			Source:     l.Name(),
		})
	}

	return result, nil
}

func formatLicense(rec license.Record) string {
	parts := []string{rec.LicenseType}
	if rec.Status != "" {
		parts = append(parts, rec.Status)
	}
	if rec.LicenseNumber != "" {
		parts = append(parts, "#"+rec.LicenseNumber)
	}
	return strings.Join(parts, ", ")
}
