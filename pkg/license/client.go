// Package license provides a client for municipal food and liquor license
// registries.
package license

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/ccrestaurant/lead-intel/internal/resilience"
)

// Config configures the license registry client.
type Config struct {
	BaseURL string  `mapstructure:"base_url"`
	APIKey  string  `mapstructure:"api_key"`
	RPS     float64 `mapstructure:"rps"`
}

// Record is a matched license registry row.
type Record struct {
	LicenseNumber string `json:"license_number"`
	BusinessName  string `json:"business_name"`
	LicenseType   string `json:"license_type"` // e.g. "common victualler", "all alcohol"
	Status        string `json:"status"`
	SeatingCap    int    `json:"seating_capacity"`
	Expiration    string `json:"expiration"`
}

// Client defines the license lookup operation.
type Client interface {
	FindLicenses(ctx context.Context, businessName, town string) ([]Record, error)
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the retry policy for transient failures.
func WithRetryConfig(rc resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = rc
	}
}

type httpClient struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates a license registry client.
func New(cfg Config, opts ...Option) Client {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 2
	}
	c := &httpClient{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   resilience.DefaultRetryConfig(),
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindLicenses tries two tiers in order: exact uppercased name, then the
// normalized name with suffixes and accents stripped. Returns on the first
// non-empty result; a clean miss is an empty slice, not an error.
func (c *httpClient) FindLicenses(ctx context.Context, businessName, town string) ([]Record, error) {
	exact := strings.ToUpper(strings.TrimSpace(businessName))
	records, err := c.query(ctx, exact, town)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}

	normalized := Normalize(businessName)
	if normalized == exact || normalized == "" {
		return nil, nil
	}
	return c.query(ctx, normalized, town)
}

// queryResponse is the JSON envelope from the registry API.
type queryResponse struct {
	Records []Record `json:"records"`
}

func (c *httpClient) query(ctx context.Context, name, town string) ([]Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "license: rate limit")
	}

	params := url.Values{
		"name": {name},
		"town": {town},
	}
	reqURL := c.cfg.BaseURL + "/licenses/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "license: build request")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("license", "find_licenses")
	}

	body, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "license: request"), 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("license: returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "license: read body"), 0)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, eris.Wrap(err, "license: parse response")
	}
	return qr.Records, nil
}
