package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/ccrestaurant/lead-intel/internal/extract"
	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/profile"
	"github.com/ccrestaurant/lead-intel/pkg/jina"
)

// websiteConfidence applies to a website candidate inferred from a search
// result URL rather than matched by a text pattern.
const websiteConfidence = 0.70

// directoryHosts are aggregator domains that must never be proposed as a
// restaurant's own website.
var directoryHosts = []string{
	"yelp.com", "facebook.com", "instagram.com", "tripadvisor.com",
	"doordash.com", "grubhub.com", "ubereats.com", "opentable.com",
	"google.com", "yellowpages.com", "mapquest.com",
}

// SearchSource queries a web search API for the lead and extracts facts
// from the result snippets.
type SearchSource struct {
	client    jina.Client
	extractor *extract.Extractor
}

// NewSearchSource creates a SearchSource.
func NewSearchSource(client jina.Client, ex *extract.Extractor) *SearchSource {
	return &SearchSource{client: client, extractor: ex}
}

func (s *SearchSource) Name() string { return "web_search" }

// Available requires a configured client; the query itself only needs the
// company name, which every enrichable lead has.
func (s *SearchSource) Available(_ *model.LeadProfile) bool {
	return s.client != nil
}

// Gather searches for the restaurant and extracts facts from the combined
// result text. When the profile has no website, the first non-directory
// result URL is proposed as one.
func (s *SearchSource) Gather(ctx context.Context, p *model.LeadProfile, gaps profile.Gaps) (*SourceResult, error) {
	query := p.CompanyName + " restaurant"
	if p.Town != "" {
		query = p.CompanyName + " " + p.Town + " restaurant"
	}

	resp, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return &SourceResult{}, nil
	}

	var sb strings.Builder
	for _, r := range resp.Data {
		sb.WriteString(r.Title)
		sb.WriteString("\n")
		sb.WriteString(r.Description)
		sb.WriteString("\n")
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}

	candidates, signals := s.extractor.Extract(sb.String(), s.Name())

	if p.Website == "" && !hasCandidate(candidates, model.FieldWebsite) {
		if site := firstOwnSite(resp.Data); site != "" {
			candidates = append(candidates, model.CandidateFact{
				FieldKey:   model.FieldWebsite,
				Value:      site,
				Confidence: websiteConfidence,
				SourceText: "top search result",
				Source:     s.Name(),
			})
		}
	}

	return &SourceResult{Candidates: candidates, Signals: signals}, nil
}

func hasCandidate(candidates []model.CandidateFact, key string) bool {
	for _, c := range candidates {
		if c.FieldKey == key {
			return true
		}
	}
	return false
}

// firstOwnSite returns the first result URL that is not an aggregator.
func firstOwnSite(results []jina.SearchResult) string {
	for _, r := range results {
		u, err := url.Parse(r.URL)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if isDirectory(host) {
			continue
		}
		return u.Scheme + "://" + u.Host
	}
	return ""
}

func isDirectory(host string) bool {
	for _, d := range directoryHosts {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
