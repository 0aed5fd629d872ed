package model

import "time"

// Severity grades a pain signal.
type Severity string

// Pain signal severities.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Known pain signal types detected by the extractor.
const (
	PainCashOnly         = "cash_only"
	PainNoOnlineOrdering = "no_online_ordering"
	PainOutdatedPOS      = "outdated_pos"
	PainManualTickets    = "manual_tickets"
	PainPhoneOrdersOnly  = "phone_orders_only"
	PainUnderstaffed     = "understaffed"
	PainLongWaits        = "long_waits"
)

// PainSignal is textual evidence of an operational problem at a prospect.
// Signals only accumulate on a profile; duplicates by (type, description)
// are suppressed at the store layer.
type PainSignal struct {
	ID          int64     `json:"id,omitempty" db:"id"`
	LeadID      string    `json:"lead_id" db:"lead_id"`
	Type        string    `json:"type" db:"type"`
	Severity    Severity  `json:"severity" db:"severity"`
	Description string    `json:"description" db:"description"`
	Source      string    `json:"source" db:"source"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Key returns the dedup key for a signal.
func (s PainSignal) Key() string {
	return s.Type + "|" + s.Description
}
