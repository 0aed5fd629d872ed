package license

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

func TestFindLicensesExactMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licenses/search", r.URL.Path)
		assert.Equal(t, "MARIO'S PIZZERIA", r.URL.Query().Get("name"))
		json.NewEncoder(w).Encode(queryResponse{Records: []Record{
			{LicenseNumber: "CV-1204", BusinessName: "MARIO'S PIZZERIA", LicenseType: "common victualler", Status: "active", SeatingCap: 48},
		}})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 100})
	records, err := c.FindLicenses(context.Background(), "Mario's Pizzeria", "Lexington")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 48, records[0].SeatingCap)
}

func TestFindLicensesFallsBackToNormalized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			assert.Equal(t, "JOSÉ'S CAFÉ LLC", r.URL.Query().Get("name"))
			json.NewEncoder(w).Encode(queryResponse{})
		default:
			assert.Equal(t, "JOSES CAFE", r.URL.Query().Get("name"))
			json.NewEncoder(w).Encode(queryResponse{Records: []Record{
				{LicenseNumber: "AA-88", BusinessName: "JOSES CAFE", LicenseType: "all alcohol", Status: "active"},
			}})
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 100})
	records, err := c.FindLicenses(context.Background(), "José's Café LLC", "Lexington")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFindLicensesCleanMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(queryResponse{})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 100})
	records, err := c.FindLicenses(context.Background(), "Ghost Kitchen", "Lexington")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFindLicensesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 100}, WithRetryConfig(fastRetry()))
	_, err := c.FindLicenses(context.Background(), "Mario's Pizzeria", "Lexington")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Mario's Pizzeria, LLC", "MARIOS PIZZERIA"},
		{"José's Café", "JOSES CAFE"},
		{"Golden  Dragon   Inc.", "GOLDEN DRAGON"},
		{"Bar & Grill Co", "BAR & GRILL"},
		{"  plain name  ", "PLAIN NAME"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}
