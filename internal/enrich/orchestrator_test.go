package enrich

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/profile"
	"github.com/ccrestaurant/lead-intel/internal/review"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

// fakeSource is a scripted Source for orchestrator tests.
type fakeSource struct {
	name      string
	available bool
	result    *SourceResult
	err       error
	calls     int
}

func (f *fakeSource) Name() string                          { return f.name }
func (f *fakeSource) Available(_ *model.LeadProfile) bool   { return f.available }
func (f *fakeSource) Gather(_ context.Context, _ *model.LeadProfile, _ profile.Gaps) (*SourceResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &SourceResult{}, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "enrich.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedLead(t *testing.T, s store.Store, p *model.LeadProfile) *model.LeadProfile {
	t.Helper()
	require.NoError(t, s.CreateLead(context.Background(), p))
	return p
}

func newOrchestrator(s store.Store, sources ...Source) *Orchestrator {
	return NewOrchestrator(s, review.NewQueue(s), Options{}, sources...)
}

func TestEnrichRequiresCompanyName(t *testing.T) {
	s := newTestStore(t)
	lead := seedLead(t, s, &model.LeadProfile{CompanyName: "placeholder"})
	lead.CompanyName = ""
	require.NoError(t, s.UpdateLead(context.Background(), lead))

	o := newOrchestrator(s, &fakeSource{name: "a", available: true})
	_, err := o.Enrich(context.Background(), lead.ID, 3)

	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestEnrichUnknownLead(t *testing.T) {
	s := newTestStore(t)

	o := newOrchestrator(s, &fakeSource{name: "a", available: true})
	_, err := o.Enrich(context.Background(), "missing", 3)

	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
}

func TestEnrichAllSourcesFail(t *testing.T) {
	s := newTestStore(t)
	lead := seedLead(t, s, &model.LeadProfile{CompanyName: "Mario's Pizzeria"})

	a := &fakeSource{name: "a", available: true, err: eris.New("connection refused")}
	b := &fakeSource{name: "b", available: true, err: eris.New("timeout")}
	c := &fakeSource{name: "c", available: true, err: &ParseFailureError{Err: eris.New("garbled response")}}

	o := newOrchestrator(s, a, b, c)
	result, err := o.Enrich(context.Background(), lead.ID, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Rounds)
	assert.False(t, result.Converged)
	assert.Equal(t, result.CompletenessBefore, result.Completeness)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, KindSourceUnavailable, result.Errors[0].Kind)
	assert.Equal(t, KindSourceUnavailable, result.Errors[1].Kind)
	assert.Equal(t, KindParseFailure, result.Errors[2].Kind)
	assert.Empty(t, result.FieldsFilled)
}

func TestEnrichOneUntriedSourcePerRound(t *testing.T) {
	s := newTestStore(t)
	lead := seedLead(t, s, &model.LeadProfile{CompanyName: "Mario's Pizzeria"})

	a := &fakeSource{name: "a", available: true, err: eris.New("down")}
	b := &fakeSource{name: "b", available: true, err: eris.New("down")}

	o := newOrchestrator(s, a, b)
	result, err := o.Enrich(context.Background(), lead.ID, 5)

	require.NoError(t, err)
	// Each source is tried at most once no matter how many rounds remain.
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 2, result.Rounds)
	assert.False(t, result.Converged)
}

func TestEnrichSkipsUnavailableSource(t *testing.T) {
	s := newTestStore(t)
	lead := seedLead(t, s, &model.LeadProfile{CompanyName: "Mario's Pizzeria"})

	a := &fakeSource{name: "a", available: false}
	b := &fakeSource{name: "b", available: true, err: eris.New("down")}

	o := newOrchestrator(s, a, b)
	result, err := o.Enrich(context.Background(), lead.ID, 3)

	require.NoError(t, err)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, result.Rounds)
}

func TestEnrichConfidentCandidatesFillProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lead := seedLead(t, s, &model.LeadProfile{CompanyName: "Mario's Pizzeria"})

	src := &fakeSource{name: "website", available: true, result: &SourceResult{
		Candidates: []model.CandidateFact{
			{FieldKey: model.FieldPOSSystem, Value: "Toast", Confidence: 0.80, Source: "website"},
			{FieldKey: model.FieldServiceStyle, Value: "casual dining", Confidence: 0.55, Source: "website"},
		},
		Signals: []model.PainSignal{
			{Type: model.PainNoOnlineOrdering, Severity: model.SeverityMedium, Description: "call to order", Source: "website"},
		},
	}}

	o := newOrchestrator(s, src)
	result, err := o.Enrich(ctx, lead.ID, 3)

	require.NoError(t, err)
	assert.Contains(t, result.FieldsFilled, model.FieldPOSSystem)
	assert.Equal(t, 1, result.FactsQueued)
	assert.Equal(t, 1, result.SignalsAdded)

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toast", got.POSSystem)
	// Low-confidence candidate waits in the queue instead of mutating the profile.
	assert.Empty(t, got.ServiceStyle)

	pending, err := s.ListFacts(ctx, store.FactFilter{Status: model.FactPending, LeadID: lead.ID})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.FieldServiceStyle, pending[0].FieldName)
}

func TestEnrichFillGapOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lead := seedLead(t, s, &model.LeadProfile{CompanyName: "Mario's Pizzeria", POSSystem: "Toast"})

	src := &fakeSource{name: "web_search", available: true, result: &SourceResult{
		Candidates: []model.CandidateFact{
			{FieldKey: model.FieldPOSSystem, Value: "Square", Confidence: 0.80, Source: "web_search"},
		},
	}}

	o := newOrchestrator(s, src)
	result, err := o.Enrich(ctx, lead.ID, 3)

	require.NoError(t, err)
	assert.NotContains(t, result.FieldsFilled, model.FieldPOSSystem)

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toast", got.POSSystem)
}

func TestEnrichConvergesAtThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	// Enough weight set to cross 75 once POS and phone land.
	lead := seedLead(t, s, &model.LeadProfile{
		CompanyName:       "Mario's Pizzeria",
		Website:           "https://marios.example.com",
		Email:             "mario@example.com",
		Address:           "12 Main St",
		OnlineOrdering:    "ChowNow",
		CuisineType:       "Italian",
		ServiceStyle:      "casual dining",
		ReservationSystem: "OpenTable",
		Rating:            "4.5",
		SocialLinks:       "https://instagram.com/marios",
	})

	filling := &fakeSource{name: "a", available: true, result: &SourceResult{
		Candidates: []model.CandidateFact{
			{FieldKey: model.FieldPOSSystem, Value: "Toast", Confidence: 0.80, Source: "a"},
			{FieldKey: model.FieldPhone, Value: "(555) 123-4567", Confidence: 0.90, Source: "a"},
		},
	}}
	never := &fakeSource{name: "b", available: true, err: eris.New("should not be called")}

	o := newOrchestrator(s, filling, never)
	result, err := o.Enrich(ctx, lead.ID, 3)

	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, 1, result.Rounds)
	assert.Equal(t, 0, never.calls)
	assert.GreaterOrEqual(t, result.Completeness, DefaultThreshold)
}

func TestEnrichStopsWhenNothingSearchable(t *testing.T) {
	s := newTestStore(t)
	// All searchable fields set; plenty of others missing.
	lead := seedLead(t, s, &model.LeadProfile{
		CompanyName: "Mario's Pizzeria",
		Website:     "https://marios.example.com",
		Phone:       "(555) 123-4567",
		Email:       "mario@example.com",
		POSSystem:   "Toast",
		CuisineType: "Italian",
	})

	src := &fakeSource{name: "a", available: true, err: eris.New("should not be called")}

	o := newOrchestrator(s, src)
	result, err := o.Enrich(context.Background(), lead.ID, 3)

	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, 0, result.Rounds)
	assert.Equal(t, 0, src.calls)
}

func TestEnrichIdempotentOnConvergedProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lead := seedLead(t, s, &model.LeadProfile{
		CompanyName: "Mario's Pizzeria",
		Website:     "https://marios.example.com",
		Phone:       "(555) 123-4567",
		Email:       "mario@example.com",
		POSSystem:   "Toast",
		CuisineType: "Italian",
	})

	src := &fakeSource{name: "a", available: true}
	o := newOrchestrator(s, src)

	first, err := o.Enrich(ctx, lead.ID, 3)
	require.NoError(t, err)
	afterFirst, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	signalsFirst, err := s.ListPainSignals(ctx, lead.ID)
	require.NoError(t, err)

	second, err := o.Enrich(ctx, lead.ID, 3)
	require.NoError(t, err)
	afterSecond, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	signalsSecond, err := s.ListPainSignals(ctx, lead.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Completeness, second.Completeness)
	assert.Equal(t, 0, second.Rounds)
	assert.Equal(t, afterFirst.POSSystem, afterSecond.POSSystem)
	assert.Equal(t, afterFirst.Completeness, afterSecond.Completeness)
	assert.Len(t, signalsSecond, len(signalsFirst))
	assert.Equal(t, 0, src.calls)
}

func TestEnrichPersistsAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lead := seedLead(t, s, &model.LeadProfile{CompanyName: "Mario's Pizzeria"})

	src := &fakeSource{name: "website", available: true, result: &SourceResult{
		Signals: []model.PainSignal{
			{Type: model.PainCashOnly, Severity: model.SeverityHigh, Description: "cash only", Source: "website"},
		},
	}}

	o := newOrchestrator(s, src)
	result, err := o.Enrich(ctx, lead.ID, 1)
	require.NoError(t, err)

	analysis, err := s.GetAnalysis(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, result.OpportunityScore, analysis.Score)
	assert.NotEmpty(t, analysis.Factors)

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, result.OpportunityScore, got.OpportunityScore)
	require.NotNil(t, got.LastEnrichedAt)
}
