package assessor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccrestaurant/lead-intel/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestLookupParcelMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parcels/lookup", r.URL.Path)
		assert.Equal(t, "12 Main St", r.URL.Query().Get("address"))
		assert.Equal(t, "Lexington", r.URL.Query().Get("town"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"matches": []map[string]any{
					{
						"parcel_id":          "042-11-003",
						"owner":              "ROSSI MARIO TRUSTEE",
						"site_address":       "12 MAIN ST",
						"land_use":           "restaurant",
						"building_area_sqft": 2400.0,
						"year_built":         1962,
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "test-key", RPS: 100})
	rec, err := c.LookupParcel(context.Background(), "12 Main St", "Lexington")

	require.NoError(t, err)
	assert.True(t, rec.Matched)
	assert.Equal(t, "ROSSI MARIO TRUSTEE", rec.Owner)
	assert.Equal(t, 2400.0, rec.BuildingArea)
}

func TestLookupParcelNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"matches": []any{}}})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 100})
	rec, err := c.LookupParcel(context.Background(), "99 Nowhere Rd", "Lexington")

	require.NoError(t, err)
	assert.False(t, rec.Matched)
}

func TestLookupParcelServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 100}, WithRetryConfig(fastRetry()))
	_, err := c.LookupParcel(context.Background(), "12 Main St", "Lexington")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(3), calls.Load(), "502 is transient and should be retried")
}

func TestLookupParcelRecoversAfterTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"matches": []map[string]any{{"parcel_id": "001-01-001", "owner": "CHEN WEI"}},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 100}, WithRetryConfig(fastRetry()))
	rec, err := c.LookupParcel(context.Background(), "1 Elm St", "Lexington")

	require.NoError(t, err)
	assert.True(t, rec.Matched)
	assert.Equal(t, "CHEN WEI", rec.Owner)
	assert.Equal(t, int32(2), calls.Load())
}
