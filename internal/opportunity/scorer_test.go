package opportunity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

func TestScoreMissingPOSAndOrdering(t *testing.T) {
	p := &model.LeadProfile{ID: "lead-1", CompanyName: "Harbor Grill"}

	a := Score(p, nil)
	// Base 50 + 15 (no POS) + 12 (no ordering).
	assert.Equal(t, 77, a.Score)
	assert.Len(t, a.Factors, 2)
	assert.Contains(t, a.Recommendations, "Offer POS consultation and live demo")
	assert.Contains(t, a.Recommendations, "Propose online ordering setup")
}

func TestScoreLegacyPOS(t *testing.T) {
	p := &model.LeadProfile{
		CompanyName:    "Harbor Grill",
		POSSystem:      "Micros",
		OnlineOrdering: "DoorDash",
	}

	a := Score(p, nil)
	assert.Equal(t, 60, a.Score)
	require.Len(t, a.Factors, 1)
	assert.Contains(t, a.Factors[0].Label, "Micros")
}

func TestScoreModernStackNoSignals(t *testing.T) {
	p := &model.LeadProfile{
		CompanyName:    "Harbor Grill",
		POSSystem:      "Toast",
		OnlineOrdering: "Direct",
	}

	a := Score(p, nil)
	assert.Equal(t, 50, a.Score)
	assert.Empty(t, a.Factors)
	assert.Empty(t, a.Recommendations)
}

func TestScorePainSignalsCapped(t *testing.T) {
	p := &model.LeadProfile{
		CompanyName:    "Harbor Grill",
		POSSystem:      "Toast",
		OnlineOrdering: "Direct",
	}
	signals := []model.PainSignal{
		{Type: model.PainCashOnly, Description: "a"},
		{Type: model.PainManualTickets, Description: "b"},
		{Type: model.PainUnderstaffed, Description: "c"},
		{Type: model.PainLongWaits, Description: "d"},
	}

	a := Score(p, signals)
	// 4 signals x 5 = 20, capped at 15.
	assert.Equal(t, 65, a.Score)
}

func TestScoreDuplicateSignalsCountOnce(t *testing.T) {
	p := &model.LeadProfile{CompanyName: "X", POSSystem: "Toast", OnlineOrdering: "Direct"}
	signals := []model.PainSignal{
		{Type: model.PainCashOnly, Description: "same"},
		{Type: model.PainCashOnly, Description: "same"},
	}

	a := Score(p, signals)
	assert.Equal(t, 55, a.Score)
}

func TestScoreClippedAt100(t *testing.T) {
	p := &model.LeadProfile{CompanyName: "X"}
	signals := []model.PainSignal{
		{Type: model.PainCashOnly, Description: "a"},
		{Type: model.PainManualTickets, Description: "b"},
		{Type: model.PainPhoneOrdersOnly, Description: "c"},
	}

	a := Score(p, signals)
	// 50 + 15 + 12 + 15 = 92; stays within bounds.
	assert.Equal(t, 92, a.Score)
	assert.LessOrEqual(t, a.Score, 100)
}

func TestScoreDeterministic(t *testing.T) {
	p := &model.LeadProfile{CompanyName: "X", POSSystem: "Aloha"}
	signals := []model.PainSignal{{Type: model.PainCashOnly, Description: "a"}}

	first := Score(p, signals)
	for i := 0; i < 5; i++ {
		again := Score(p, signals)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Factors, again.Factors)
		assert.Equal(t, first.Recommendations, again.Recommendations)
	}
}

func TestScoreRecommendationsKeyedToSignals(t *testing.T) {
	p := &model.LeadProfile{CompanyName: "X", POSSystem: "Toast", OnlineOrdering: "Direct"}
	signals := []model.PainSignal{
		{Type: model.PainManualTickets, Description: "tickets"},
	}

	a := Score(p, signals)
	assert.Contains(t, a.Recommendations, "Demo kitchen display system replacing paper tickets")
	assert.NotContains(t, a.Recommendations, "Propose online ordering setup")
}
