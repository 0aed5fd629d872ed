package scrape

import "context"

// Page is a fetched web page. HTML is present only when the scraper had
// access to the raw markup; Text is always set.
type Page struct {
	URL        string
	Title      string
	HTML       string
	Text       string
	StatusCode int
}

// Result holds a scraped page with its source.
type Result struct {
	Page   Page
	Source string // e.g. "local_http", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
