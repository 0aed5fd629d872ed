// Package extract turns raw text and HTML into typed candidate facts using
// ordered keyword/regex pattern tables.
package extract

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// Extraction categories. Each category emits at most one candidate per call.
const (
	CategoryCuisine     = "cuisine"
	CategoryPOS         = "pos"
	CategoryOrdering    = "ordering"
	CategoryReservation = "reservation"
	CategoryService     = "service_style"
	CategoryPhone       = "phone"
	CategoryEmail       = "email"
	CategorySocial      = "social"
	CategoryPain        = "pain"
)

// Pattern is one entry in an ordered detection list. Keyword patterns match
// as case-insensitive whole words; Regex patterns match verbatim. Canonical
// is the value emitted on match; when empty, the matched text itself is used.
type Pattern struct {
	Keyword   string `yaml:"keyword,omitempty"`
	Regex     string `yaml:"regex,omitempty"`
	Canonical string `yaml:"canonical,omitempty"`

	re *regexp.Regexp
}

// PainPattern maps a detected phrase to a typed pain signal.
type PainPattern struct {
	Keyword     string         `yaml:"keyword"`
	Type        string         `yaml:"type"`
	Severity    model.Severity `yaml:"severity"`
	Description string         `yaml:"description"`

	re *regexp.Regexp
}

// PatternSet is the versioned pattern configuration injected into the
// Extractor. List order is load-bearing: the first matching pattern in a
// category wins, so ties on ambiguous text are broken by position, not by
// match strength.
type PatternSet struct {
	Version string `yaml:"version"`

	// Confidence is the fixed per-category confidence table. Values are
	// constants reflecting pattern specificity, not computed from match
	// quality; keeping them in one table prevents drift between the text
	// and HTML extractor variants.
	Confidence map[string]float64 `yaml:"confidence"`

	Cuisine     []Pattern `yaml:"cuisine"`
	POS         []Pattern `yaml:"pos"`
	Ordering    []Pattern `yaml:"ordering"`
	Reservation []Pattern `yaml:"reservation"`
	Service     []Pattern `yaml:"service_style"`
	Phone       []Pattern `yaml:"phone"`
	Email       []Pattern `yaml:"email"`

	Pain []PainPattern `yaml:"pain"`
}

// LegacyPOSVendors lists POS systems considered legacy for opportunity
// scoring purposes.
var LegacyPOSVendors = []string{"Aloha", "Micros", "POSitouch", "Dinerware", "Cash Register"}

// DefaultPatternSet returns the built-in pattern tables, compiled and ready
// to use.
func DefaultPatternSet() *PatternSet {
	ps := &PatternSet{
		Version: "2024-06",
		Confidence: map[string]float64{
			CategoryPhone:       0.90,
			CategoryEmail:       0.95,
			CategoryCuisine:     0.75,
			CategoryService:     0.70,
			CategoryPOS:         0.80,
			CategoryOrdering:    0.75,
			CategoryReservation: 0.75,
			CategorySocial:      0.85,
			CategoryPain:        0.60,
		},
		Cuisine: []Pattern{
			{Keyword: "italian", Canonical: "Italian"},
			{Keyword: "mexican", Canonical: "Mexican"},
			{Keyword: "chinese", Canonical: "Chinese"},
			{Keyword: "japanese", Canonical: "Japanese"},
			{Keyword: "sushi", Canonical: "Japanese"},
			{Keyword: "thai", Canonical: "Thai"},
			{Keyword: "indian", Canonical: "Indian"},
			{Keyword: "greek", Canonical: "Greek"},
			{Keyword: "french", Canonical: "French"},
			{Keyword: "seafood", Canonical: "Seafood"},
			{Keyword: "barbecue", Canonical: "BBQ"},
			{Keyword: "bbq", Canonical: "BBQ"},
			{Keyword: "steakhouse", Canonical: "Steakhouse"},
			{Keyword: "pizza", Canonical: "Pizza"},
			{Keyword: "pizzeria", Canonical: "Pizza"},
			{Keyword: "deli", Canonical: "Deli"},
			{Keyword: "diner", Canonical: "American"},
			{Keyword: "burger", Canonical: "American"},
			{Keyword: "vegan", Canonical: "Vegan"},
			{Keyword: "vegetarian", Canonical: "Vegetarian"},
		},
		POS: []Pattern{
			{Keyword: "toast pos", Canonical: "Toast"},
			{Keyword: "toasttab", Canonical: "Toast"},
			{Keyword: "square", Canonical: "Square"},
			{Keyword: "clover", Canonical: "Clover"},
			{Keyword: "touchbistro", Canonical: "TouchBistro"},
			{Keyword: "lightspeed", Canonical: "Lightspeed"},
			{Keyword: "spoton", Canonical: "SpotOn"},
			{Keyword: "revel", Canonical: "Revel"},
			{Keyword: "aloha", Canonical: "Aloha"},
			{Keyword: "micros", Canonical: "Micros"},
			{Keyword: "positouch", Canonical: "POSitouch"},
			{Keyword: "dinerware", Canonical: "Dinerware"},
			{Keyword: "cash register", Canonical: "Cash Register"},
		},
		Ordering: []Pattern{
			{Keyword: "doordash", Canonical: "DoorDash"},
			{Keyword: "ubereats", Canonical: "Uber Eats"},
			{Keyword: "uber eats", Canonical: "Uber Eats"},
			{Keyword: "grubhub", Canonical: "Grubhub"},
			{Keyword: "chownow", Canonical: "ChowNow"},
			{Keyword: "slicelife", Canonical: "Slice"},
			{Keyword: "order online", Canonical: "Direct"},
			{Keyword: "online ordering", Canonical: "Direct"},
		},
		Reservation: []Pattern{
			{Keyword: "opentable", Canonical: "OpenTable"},
			{Keyword: "resy", Canonical: "Resy"},
			{Keyword: "tock", Canonical: "Tock"},
			{Keyword: "yelp reservations", Canonical: "Yelp"},
			{Keyword: "reservations recommended", Canonical: "Phone"},
		},
		Service: []Pattern{
			{Keyword: "fine dining", Canonical: "Fine Dining"},
			{Keyword: "fast casual", Canonical: "Fast Casual"},
			{Keyword: "casual dining", Canonical: "Casual Dining"},
			{Keyword: "counter service", Canonical: "Counter Service"},
			{Keyword: "quick service", Canonical: "Quick Service"},
			{Keyword: "food truck", Canonical: "Food Truck"},
			{Keyword: "buffet", Canonical: "Buffet"},
			{Keyword: "takeout only", Canonical: "Takeout"},
			{Keyword: "family style", Canonical: "Family Style"},
		},
		// Phone/email are permissive by design: near-matches are accepted
		// without checksum or MX validation, trading precision for recall.
		Phone: []Pattern{
			{Regex: `\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}`},
			{Regex: `\b\d{3}-\d{4}\b`},
		},
		Email: []Pattern{
			{Regex: `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`},
		},
		Pain: []PainPattern{
			{Keyword: "cash only", Type: model.PainCashOnly, Severity: model.SeverityHigh,
				Description: "Accepts cash only, no card processing"},
			{Keyword: "no online ordering", Type: model.PainNoOnlineOrdering, Severity: model.SeverityMedium,
				Description: "No online ordering channel"},
			{Keyword: "call to order", Type: model.PainPhoneOrdersOnly, Severity: model.SeverityMedium,
				Description: "Orders taken by phone only"},
			{Keyword: "phone orders only", Type: model.PainPhoneOrdersOnly, Severity: model.SeverityMedium,
				Description: "Orders taken by phone only"},
			{Keyword: "handwritten tickets", Type: model.PainManualTickets, Severity: model.SeverityHigh,
				Description: "Kitchen runs on handwritten tickets"},
			{Keyword: "cash register", Type: model.PainOutdatedPOS, Severity: model.SeverityMedium,
				Description: "Legacy register instead of a POS"},
			{Keyword: "short staffed", Type: model.PainUnderstaffed, Severity: model.SeverityLow,
				Description: "Self-reported staffing shortage"},
			{Keyword: "understaffed", Type: model.PainUnderstaffed, Severity: model.SeverityLow,
				Description: "Self-reported staffing shortage"},
			{Keyword: "long wait", Type: model.PainLongWaits, Severity: model.SeverityLow,
				Description: "Reviews mention long waits"},
		},
	}
	if err := ps.Compile(); err != nil {
		// Built-in patterns are tested; a compile failure here is a bug.
		panic(err)
	}
	return ps
}

// LoadPatternSet reads a YAML pattern file and compiles it. Used to swap
// pattern tables without a rebuild.
func LoadPatternSet(path string) (*PatternSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read pattern file %s", path)
	}
	var ps PatternSet
	if err := yaml.Unmarshal(raw, &ps); err != nil {
		return nil, eris.Wrap(err, "extract: parse pattern file")
	}
	if err := ps.Compile(); err != nil {
		return nil, err
	}
	return &ps, nil
}

// Compile pre-compiles every pattern in the set. Keyword patterns become
// case-insensitive whole-word regexes; explicit regexes compile verbatim.
func (ps *PatternSet) Compile() error {
	lists := [][]Pattern{ps.Cuisine, ps.POS, ps.Ordering, ps.Reservation, ps.Service, ps.Phone, ps.Email}
	for _, list := range lists {
		for i := range list {
			if err := list[i].compile(); err != nil {
				return err
			}
		}
	}
	for i := range ps.Pain {
		re, err := keywordRegex(ps.Pain[i].Keyword)
		if err != nil {
			return err
		}
		ps.Pain[i].re = re
	}
	return nil
}

// ConfidenceFor returns the fixed confidence for a category, or 0.5 when the
// table is missing an entry.
func (ps *PatternSet) ConfidenceFor(category string) float64 {
	if c, ok := ps.Confidence[category]; ok {
		return c
	}
	return 0.5
}

func (p *Pattern) compile() error {
	if p.Regex != "" {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return eris.Wrapf(err, "extract: compile pattern %q", p.Regex)
		}
		p.re = re
		return nil
	}
	re, err := keywordRegex(p.Keyword)
	if err != nil {
		return err
	}
	p.re = re
	return nil
}

func keywordRegex(keyword string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: compile keyword %q", keyword)
	}
	return re, nil
}
