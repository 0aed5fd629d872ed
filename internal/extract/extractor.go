package extract

import (
	"strings"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// minInputLen is the shortest input worth scanning. Anything below it
// returns no candidates and no error.
const minInputLen = 10

// contextRadius is how many characters of surrounding text are kept around a
// match as provenance.
const contextRadius = 20

// Extractor scans raw text for candidate facts and pain signals. It is
// stateless: the same input always yields the same output for a given
// PatternSet.
type Extractor struct {
	ps *PatternSet
}

// New creates an Extractor over the given pattern set.
func New(ps *PatternSet) *Extractor {
	return &Extractor{ps: ps}
}

// categoryField maps extraction categories to profile schema fields.
var categoryField = map[string]string{
	CategoryCuisine:     model.FieldCuisineType,
	CategoryPOS:         model.FieldPOSSystem,
	CategoryOrdering:    model.FieldOnlineOrdering,
	CategoryReservation: model.FieldReservationSystem,
	CategoryService:     model.FieldServiceStyle,
	CategoryPhone:       model.FieldPhone,
	CategoryEmail:       model.FieldEmail,
	CategorySocial:      model.FieldSocialLinks,
}

// Extract scans text and returns at most one candidate per category plus any
// detected pain signals. The source tag is recorded as provenance on every
// emitted value.
func (e *Extractor) Extract(text, source string) ([]model.CandidateFact, []model.PainSignal) {
	if len(strings.TrimSpace(text)) < minInputLen {
		return nil, nil
	}

	var facts []model.CandidateFact
	scan := func(category string, patterns []Pattern) {
		if f, ok := e.firstMatch(category, patterns, text, source); ok {
			facts = append(facts, f)
		}
	}

	scan(CategoryCuisine, e.ps.Cuisine)
	scan(CategoryPOS, e.ps.POS)
	scan(CategoryOrdering, e.ps.Ordering)
	scan(CategoryReservation, e.ps.Reservation)
	scan(CategoryService, e.ps.Service)
	scan(CategoryPhone, e.ps.Phone)
	scan(CategoryEmail, e.ps.Email)

	return facts, e.extractPain(text, source)
}

// firstMatch walks a category's ordered pattern list and returns the first
// hit. List order, not match strength, breaks ties on ambiguous text.
func (e *Extractor) firstMatch(category string, patterns []Pattern, text, source string) (model.CandidateFact, bool) {
	for _, p := range patterns {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		matched := text[loc[0]:loc[1]]
		value := p.Canonical
		if value == "" {
			value = matched
		}
		return model.CandidateFact{
			FieldKey:   categoryField[category],
			Value:      value,
			Category:   category,
			Confidence: e.ps.ConfidenceFor(category),
			SourceText: snippet(text, loc[0], loc[1]),
			Source:     source,
		}, true
	}
	return model.CandidateFact{}, false
}

// extractPain collects every distinct pain signal in the text. Unlike fact
// categories, pains are not capped at one per call: each pattern type that
// fires emits a signal, deduplicated by type.
func (e *Extractor) extractPain(text, source string) []model.PainSignal {
	var signals []model.PainSignal
	seen := make(map[string]bool)
	for _, p := range e.ps.Pain {
		loc := p.re.FindStringIndex(text)
		if loc == nil || seen[p.Type] {
			continue
		}
		seen[p.Type] = true
		signals = append(signals, model.PainSignal{
			Type:        p.Type,
			Severity:    p.Severity,
			Description: p.Description,
			Source:      source,
		})
	}
	return signals
}

// snippet returns the matched range widened by contextRadius on each side,
// clamped to the text bounds.
func snippet(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}
