// Package assessor provides a client for town assessor parcel lookup APIs.
package assessor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/ccrestaurant/lead-intel/internal/resilience"
)

// Config configures the assessor client.
type Config struct {
	BaseURL string  `mapstructure:"base_url"`
	APIKey  string  `mapstructure:"api_key"`
	RPS     float64 `mapstructure:"rps"`
}

// ParcelRecord is a matched parcel from a town assessor database.
type ParcelRecord struct {
	ParcelID     string  `json:"parcel_id"`
	Owner        string  `json:"owner"`
	SiteAddress  string  `json:"site_address"`
	LandUse      string  `json:"land_use"`
	BuildingArea float64 `json:"building_area_sqft"`
	YearBuilt    int     `json:"year_built"`
	Matched      bool    `json:"-"`
}

// Client defines the parcel lookup operation.
type Client interface {
	LookupParcel(ctx context.Context, address, town string) (*ParcelRecord, error)
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

// New creates an assessor client. Public assessor endpoints are heavily
// rate limited, so requests go through a limiter (default 2 rps).
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

// lookupResponse is the JSON envelope from the parcel API.
type lookupResponse struct {
	Result struct {
		Matches []ParcelRecord `json:"matches"`
	} `json:"result"`
}

// LookupParcel queries the assessor API for a property record matching the
// address within a town. A miss returns an unmatched record, not an error.
func (c *httpClient) LookupParcel(ctx context.Context, address, town string) (*ParcelRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "assessor: rate limit")
	}

	params := url.Values{
		"address": {address},
		"town":    {town},
		"format":  {"json"},
	}
	reqURL := c.cfg.BaseURL + "/parcels/lookup?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "assessor: build request")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("assessor", "lookup_parcel")
	}

	body, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "assessor: request"), 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("assessor: returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "assessor: read body"), 0)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, eris.Wrap(err, "assessor: parse response")
	}

	if len(lr.Result.Matches) == 0 {
		return &ParcelRecord{Matched: false}, nil
	}

	rec := lr.Result.Matches[0]
	rec.Matched = true
	return &rec, nil
}
