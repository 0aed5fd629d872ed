package scrape

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScraper is a configurable test double.
type fakeScraper struct {
	name     string
	supports bool
	result   *Result
	err      error
	calls    int
}

func (f *fakeScraper) Name() string            { return f.name }
func (f *fakeScraper) Supports(_ string) bool  { return f.supports }
func (f *fakeScraper) Scrape(_ context.Context, url string) (*Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestChainFirstSuccessWins(t *testing.T) {
	first := &fakeScraper{name: "first", supports: true, result: &Result{Source: "first", Page: Page{Text: "menu"}}}
	second := &fakeScraper{name: "second", supports: true, result: &Result{Source: "second"}}

	chain := NewChain(NewPathMatcher(nil), first, second)
	result, err := chain.Scrape(context.Background(), "https://marios.example.com/menu")

	require.NoError(t, err)
	assert.Equal(t, "first", result.Source)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChainFallsThroughOnError(t *testing.T) {
	first := &fakeScraper{name: "first", supports: true, err: eris.New("blocked")}
	second := &fakeScraper{name: "second", supports: true, result: &Result{Source: "second", Page: Page{Text: "menu"}}}

	chain := NewChain(NewPathMatcher(nil), first, second)
	result, err := chain.Scrape(context.Background(), "https://marios.example.com")

	require.NoError(t, err)
	assert.Equal(t, "second", result.Source)
	assert.Equal(t, 1, first.calls)
}

func TestChainSkipsUnsupported(t *testing.T) {
	first := &fakeScraper{name: "first", supports: false}
	second := &fakeScraper{name: "second", supports: true, result: &Result{Source: "second"}}

	chain := NewChain(NewPathMatcher(nil), first, second)
	result, err := chain.Scrape(context.Background(), "https://marios.example.com")

	require.NoError(t, err)
	assert.Equal(t, "second", result.Source)
	assert.Equal(t, 0, first.calls)
}

func TestChainAllFail(t *testing.T) {
	first := &fakeScraper{name: "first", supports: true, err: eris.New("blocked")}
	second := &fakeScraper{name: "second", supports: true, err: eris.New("timeout")}

	chain := NewChain(NewPathMatcher(nil), first, second)
	_, err := chain.Scrape(context.Background(), "https://marios.example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all scrapers failed")
}

func TestChainExcludedURL(t *testing.T) {
	s := &fakeScraper{name: "s", supports: true, result: &Result{Source: "s"}}

	chain := NewChain(NewPathMatcher(nil), s)
	_, err := chain.Scrape(context.Background(), "https://marios.example.com/cart/item-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "excluded")
	assert.Equal(t, 0, s.calls)
}

func TestChainScrapeAll(t *testing.T) {
	s := &fakeScraper{name: "s", supports: true, result: &Result{Source: "s", Page: Page{Text: "content"}}}

	chain := NewChain(NewPathMatcher(nil), s)
	pages := chain.ScrapeAll(context.Background(), []string{
		"https://marios.example.com",
		"https://marios.example.com/contact",
		"https://marios.example.com/checkout/pay", // excluded
	}, 2)

	assert.Len(t, pages, 2)
}
