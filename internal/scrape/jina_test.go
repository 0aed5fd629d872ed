package scrape

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccrestaurant/lead-intel/pkg/jina"
)

// fakeJinaClient returns canned responses.
type fakeJinaClient struct {
	resp *jina.ReadResponse
	err  error
}

func (f *fakeJinaClient) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	return f.resp, f.err
}

func (f *fakeJinaClient) Search(_ context.Context, _ string, _ ...jina.SearchOption) (*jina.SearchResponse, error) {
	return nil, eris.New("not implemented")
}

func goodResponse() *jina.ReadResponse {
	return &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			Title:   "Mario's Pizzeria",
			URL:     "https://marios.example.com",
			Content: strings.Repeat("Authentic Italian restaurant in Lexington. ", 5),
		},
	}
}

func TestJinaAdapterSuccess(t *testing.T) {
	adapter := NewJinaAdapter(&fakeJinaClient{resp: goodResponse()})

	result, err := adapter.Scrape(context.Background(), "https://marios.example.com")
	require.NoError(t, err)
	assert.Equal(t, "jina", result.Source)
	assert.Empty(t, result.Page.HTML)
	assert.Contains(t, result.Page.Text, "Authentic Italian")
}

func TestJinaAdapterShortContentNeedsFallback(t *testing.T) {
	resp := goodResponse()
	resp.Data.Content = "tiny"
	adapter := NewJinaAdapter(&fakeJinaClient{resp: resp})

	_, err := adapter.Scrape(context.Background(), "https://marios.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs fallback")
}

func TestJinaAdapterChallengePageNeedsFallback(t *testing.T) {
	resp := goodResponse()
	resp.Data.Content = "Just a moment... checking your browser before accessing the site."
	adapter := NewJinaAdapter(&fakeJinaClient{resp: resp})

	_, err := adapter.Scrape(context.Background(), "https://marios.example.com")
	require.Error(t, err)
}

func TestJinaAdapterCircuitBreakerOpens(t *testing.T) {
	adapter := NewJinaAdapter(&fakeJinaClient{err: eris.New("upstream down")})

	for i := 0; i < 3; i++ {
		_, err := adapter.Scrape(context.Background(), "https://marios.example.com")
		require.Error(t, err)
	}

	assert.False(t, adapter.Supports("https://marios.example.com"))
	_, err := adapter.Scrape(context.Background(), "https://marios.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestCircuitBreakerWindowResets(t *testing.T) {
	cb := newCircuitBreaker(3, 10*time.Millisecond, time.Minute)

	cb.recordFailure()
	cb.recordFailure()
	time.Sleep(20 * time.Millisecond)
	// Outside the window, the count starts over.
	cb.recordFailure()
	assert.False(t, cb.isOpen())

	cb.recordFailure()
	cb.recordFailure()
	assert.True(t, cb.isOpen())
}

func TestCircuitBreakerSuccessResets(t *testing.T) {
	cb := newCircuitBreaker(3, time.Minute, time.Minute)

	cb.recordFailure()
	cb.recordFailure()
	cb.recordSuccess()
	cb.recordFailure()
	cb.recordFailure()
	assert.False(t, cb.isOpen())
}
