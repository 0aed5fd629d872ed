// Package model defines the core entities for the lead enrichment engine.
package model

import (
	"time"
)

// LeadProfile is the golden record for a prospective restaurant client.
// Every schema field is a string; empty string means unset. Fields are only
// ever filled, never overwritten (fill-gap-only), so merges must go through
// profile.ApplyCandidates rather than assigning directly.
type LeadProfile struct {
	ID string `json:"id" db:"id"`

	CompanyName       string `json:"company_name" db:"company_name"`
	Website           string `json:"website,omitempty" db:"website"`
	Phone             string `json:"phone,omitempty" db:"phone"`
	Email             string `json:"email,omitempty" db:"email"`
	Address           string `json:"address,omitempty" db:"address"`
	CuisineType       string `json:"cuisine_type,omitempty" db:"cuisine_type"`
	ServiceStyle      string `json:"service_style,omitempty" db:"service_style"`
	OwnerName         string `json:"owner_name,omitempty" db:"owner_name"`
	POSSystem         string `json:"pos_system,omitempty" db:"pos_system"`
	OnlineOrdering    string `json:"online_ordering,omitempty" db:"online_ordering"`
	ReservationSystem string `json:"reservation_system,omitempty" db:"reservation_system"`
	SocialLinks       string `json:"social_links,omitempty" db:"social_links"`
	Rating            string `json:"rating,omitempty" db:"rating"`
	PriceLevel        string `json:"price_level,omitempty" db:"price_level"`
	SeatingCapacity   string `json:"seating_capacity,omitempty" db:"seating_capacity"`
	LicenseInfo       string `json:"license_info,omitempty" db:"license_info"`

	Town string `json:"town,omitempty" db:"town"`

	// Enrichment metadata.
	Completeness     int        `json:"completeness" db:"completeness"`
	OpportunityScore int        `json:"opportunity_score" db:"opportunity_score"`
	LastEnrichedAt   *time.Time `json:"last_enriched_at,omitempty" db:"last_enriched_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Schema field keys.
const (
	FieldCompanyName       = "company_name"
	FieldWebsite           = "website"
	FieldPhone             = "phone"
	FieldEmail             = "email"
	FieldAddress           = "address"
	FieldCuisineType       = "cuisine_type"
	FieldServiceStyle      = "service_style"
	FieldOwnerName         = "owner_name"
	FieldPOSSystem         = "pos_system"
	FieldOnlineOrdering    = "online_ordering"
	FieldReservationSystem = "reservation_system"
	FieldSocialLinks       = "social_links"
	FieldRating            = "rating"
	FieldPriceLevel        = "price_level"
	FieldSeatingCapacity   = "seating_capacity"
	FieldLicenseInfo       = "license_info"
)

// FieldSpec describes one schema field: its completeness weight, whether a
// gap in it is worth an external lookup, and accessors into LeadProfile.
type FieldSpec struct {
	Key        string
	Weight     int
	Searchable bool
	Get        func(p *LeadProfile) string
	Set        func(p *LeadProfile, v string)
}

// Schema is the fixed, ordered field schema. Weights sum to 100 so the raw
// weight of a field doubles as its completeness contribution in percent.
// Versioned with the entity shape: changing weights changes every stored
// completeness score.
var Schema = []FieldSpec{
	{FieldCompanyName, 10, false,
		func(p *LeadProfile) string { return p.CompanyName },
		func(p *LeadProfile, v string) { p.CompanyName = v }},
	{FieldPOSSystem, 9, true,
		func(p *LeadProfile) string { return p.POSSystem },
		func(p *LeadProfile, v string) { p.POSSystem = v }},
	{FieldWebsite, 8, true,
		func(p *LeadProfile) string { return p.Website },
		func(p *LeadProfile, v string) { p.Website = v }},
	{FieldPhone, 8, true,
		func(p *LeadProfile) string { return p.Phone },
		func(p *LeadProfile, v string) { p.Phone = v }},
	{FieldOwnerName, 8, false,
		func(p *LeadProfile) string { return p.OwnerName },
		func(p *LeadProfile, v string) { p.OwnerName = v }},
	{FieldEmail, 7, true,
		func(p *LeadProfile) string { return p.Email },
		func(p *LeadProfile, v string) { p.Email = v }},
	{FieldAddress, 7, false,
		func(p *LeadProfile) string { return p.Address },
		func(p *LeadProfile, v string) { p.Address = v }},
	{FieldOnlineOrdering, 7, false,
		func(p *LeadProfile) string { return p.OnlineOrdering },
		func(p *LeadProfile, v string) { p.OnlineOrdering = v }},
	{FieldCuisineType, 6, true,
		func(p *LeadProfile) string { return p.CuisineType },
		func(p *LeadProfile, v string) { p.CuisineType = v }},
	{FieldServiceStyle, 5, false,
		func(p *LeadProfile) string { return p.ServiceStyle },
		func(p *LeadProfile, v string) { p.ServiceStyle = v }},
	{FieldReservationSystem, 5, false,
		func(p *LeadProfile) string { return p.ReservationSystem },
		func(p *LeadProfile, v string) { p.ReservationSystem = v }},
	{FieldRating, 5, false,
		func(p *LeadProfile) string { return p.Rating },
		func(p *LeadProfile, v string) { p.Rating = v }},
	{FieldSocialLinks, 4, false,
		func(p *LeadProfile) string { return p.SocialLinks },
		func(p *LeadProfile, v string) { p.SocialLinks = v }},
	{FieldSeatingCapacity, 4, false,
		func(p *LeadProfile) string { return p.SeatingCapacity },
		func(p *LeadProfile, v string) { p.SeatingCapacity = v }},
	{FieldLicenseInfo, 4, false,
		func(p *LeadProfile) string { return p.LicenseInfo },
		func(p *LeadProfile, v string) { p.LicenseInfo = v }},
	{FieldPriceLevel, 3, false,
		func(p *LeadProfile) string { return p.PriceLevel },
		func(p *LeadProfile, v string) { p.PriceLevel = v }},
}

var schemaByKey = func() map[string]*FieldSpec {
	m := make(map[string]*FieldSpec, len(Schema))
	for i := range Schema {
		m[Schema[i].Key] = &Schema[i]
	}
	return m
}()

// SpecFor returns the FieldSpec for the given key, or nil if the key is not
// part of the schema.
func SpecFor(key string) *FieldSpec {
	return schemaByKey[key]
}

// TotalWeight returns the sum of all schema field weights.
func TotalWeight() int {
	total := 0
	for _, f := range Schema {
		total += f.Weight
	}
	return total
}

// Field returns the current value of the named schema field, or empty string
// for unknown keys.
func (p *LeadProfile) Field(key string) string {
	if spec := SpecFor(key); spec != nil {
		return spec.Get(p)
	}
	return ""
}

// SetField sets the named schema field unconditionally. Callers that must
// honor fill-gap-only use profile.ApplyCandidates instead.
func (p *LeadProfile) SetField(key, value string) bool {
	if spec := SpecFor(key); spec != nil {
		spec.Set(p, value)
		return true
	}
	return false
}
