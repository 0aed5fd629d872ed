package enrich

import (
	"context"

	"github.com/ccrestaurant/lead-intel/internal/extract"
	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/profile"
	"github.com/ccrestaurant/lead-intel/internal/scrape"
)

// WebsiteSource scrapes the lead's own website and extracts facts from it.
// This is always the first source tried: it is the cheapest and the most
// trustworthy text about a restaurant.
type WebsiteSource struct {
	chain     *scrape.Chain
	extractor *extract.Extractor
}

// NewWebsiteSource creates a WebsiteSource.
func NewWebsiteSource(chain *scrape.Chain, ex *extract.Extractor) *WebsiteSource {
	return &WebsiteSource{chain: chain, extractor: ex}
}

func (w *WebsiteSource) Name() string { return "website" }

// Available requires the profile to already carry a website URL.
func (w *WebsiteSource) Available(p *model.LeadProfile) bool {
	return p.Website != ""
}

// Gather scrapes the site and runs extraction. When raw HTML is available
// the structural pass runs first (widget embeds beat text patterns).
func (w *WebsiteSource) Gather(ctx context.Context, p *model.LeadProfile, _ profile.Gaps) (*SourceResult, error) {
	result, err := w.chain.Scrape(ctx, p.Website)
	if err != nil {
		return nil, err
	}

	if result.Page.HTML != "" {
		candidates, signals, err := w.extractor.ExtractHTML(result.Page.HTML, w.Name())
		if err != nil {
			return nil, &ParseFailureError{Err: err}
		}
		return &SourceResult{Candidates: candidates, Signals: signals}, nil
	}

	candidates, signals := w.extractor.Extract(result.Page.Text, w.Name())
	return &SourceResult{Candidates: candidates, Signals: signals}, nil
}
