package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// vendorDomain maps an embedded third-party domain to the category and
// canonical vendor it implies. Widget and ordering-link domains are stronger
// evidence than body text, so HTML detections take precedence over text scans
// of the same page.
var vendorDomains = []struct {
	domain    string
	category  string
	canonical string
}{
	{"toasttab.com", CategoryPOS, "Toast"},
	{"squareup.com", CategoryPOS, "Square"},
	{"square.site", CategoryPOS, "Square"},
	{"clover.com", CategoryPOS, "Clover"},
	{"touchbistro.com", CategoryPOS, "TouchBistro"},
	{"doordash.com", CategoryOrdering, "DoorDash"},
	{"ubereats.com", CategoryOrdering, "Uber Eats"},
	{"grubhub.com", CategoryOrdering, "Grubhub"},
	{"chownow.com", CategoryOrdering, "ChowNow"},
	{"slicelife.com", CategoryOrdering, "Slice"},
	{"opentable.com", CategoryReservation, "OpenTable"},
	{"resy.com", CategoryReservation, "Resy"},
	{"exploretock.com", CategoryReservation, "Tock"},
}

var socialDomains = []string{"facebook.com", "instagram.com", "tiktok.com"}

// ExtractHTML parses a scraped page and extracts candidates from both its
// link/script structure and its visible text. Structural detections (widget
// domains, mailto/tel links) win over text matches for the same category;
// the one-candidate-per-category rule still holds for the combined result.
func (e *Extractor) ExtractHTML(html, source string) ([]model.CandidateFact, []model.PainSignal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, eris.Wrap(err, "extract: parse html")
	}

	byCategory := make(map[string]model.CandidateFact)
	add := func(category, value, sourceText string) {
		if _, exists := byCategory[category]; exists {
			return
		}
		byCategory[category] = model.CandidateFact{
			FieldKey:   categoryField[category],
			Value:      value,
			Category:   category,
			Confidence: e.ps.ConfidenceFor(category),
			SourceText: sourceText,
			Source:     source,
		}
	}

	// Structural pass: embedded vendor domains, social profiles, contact links.
	doc.Find("a[href], script[src], link[href], iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		ref, ok := sel.Attr("href")
		if !ok {
			ref, _ = sel.Attr("src")
		}
		if ref == "" {
			return
		}
		lower := strings.ToLower(ref)

		switch {
		case strings.HasPrefix(lower, "mailto:"):
			add(CategoryEmail, strings.TrimPrefix(ref, "mailto:"), ref)
			return
		case strings.HasPrefix(lower, "tel:"):
			add(CategoryPhone, strings.TrimPrefix(ref, "tel:"), ref)
			return
		}

		for _, v := range vendorDomains {
			if strings.Contains(lower, v.domain) {
				add(v.category, v.canonical, ref)
				return
			}
		}
		for _, d := range socialDomains {
			if strings.Contains(lower, d) {
				add(CategorySocial, ref, ref)
				return
			}
		}
	})

	// Text pass fills categories the structural pass missed.
	textFacts, pains := e.Extract(doc.Text(), source)
	for _, f := range textFacts {
		if _, exists := byCategory[f.Category]; !exists {
			byCategory[f.Category] = f
		}
	}

	// Emit in stable category order.
	order := []string{
		CategoryCuisine, CategoryPOS, CategoryOrdering, CategoryReservation,
		CategoryService, CategoryPhone, CategoryEmail, CategorySocial,
	}
	var facts []model.CandidateFact
	for _, c := range order {
		if f, ok := byCategory[c]; ok {
			facts = append(facts, f)
		}
	}
	return facts, pains, nil
}
