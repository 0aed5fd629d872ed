package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccrestaurant/lead-intel/internal/enrich"
	"github.com/ccrestaurant/lead-intel/internal/model"
)

func makeFakeLeads(n int) []model.LeadProfile {
	leads := make([]model.LeadProfile, n)
	for i := range leads {
		leads[i] = model.LeadProfile{
			ID:          fmt.Sprintf("lead-%d", i),
			CompanyName: fmt.Sprintf("Restaurant %d", i),
		}
	}
	return leads
}

func TestProcessBatch_EmptyLeads(t *testing.T) {
	err := processBatch(context.Background(), nil, 5, func(_ context.Context, _ model.LeadProfile) (*enrich.Result, error) {
		t.Fatal("enrichFunc should not be called for empty leads")
		return nil, nil
	})
	require.NoError(t, err)
}

func TestProcessBatch_AllSucceed(t *testing.T) {
	leads := makeFakeLeads(3)
	var count atomic.Int64

	err := processBatch(context.Background(), leads, 2, func(_ context.Context, lead model.LeadProfile) (*enrich.Result, error) {
		count.Add(1)
		return &enrich.Result{LeadID: lead.ID, Completeness: 80, Converged: true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Load())
}

func TestProcessBatch_FailuresDoNotAbort(t *testing.T) {
	leads := makeFakeLeads(4)
	var callCount atomic.Int64

	err := processBatch(context.Background(), leads, 2, func(_ context.Context, _ model.LeadProfile) (*enrich.Result, error) {
		n := callCount.Add(1)
		if n%2 == 0 {
			return nil, errors.New("source blew up")
		}
		return &enrich.Result{Completeness: 60}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), callCount.Load(), "every lead should be attempted")
}

func TestProcessBatch_Concurrency1(t *testing.T) {
	leads := makeFakeLeads(3)
	var count atomic.Int64

	err := processBatch(context.Background(), leads, 1, func(_ context.Context, _ model.LeadProfile) (*enrich.Result, error) {
		count.Add(1)
		return &enrich.Result{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Load())
}

func TestProcessBatch_ZeroConcurrencyClamped(t *testing.T) {
	leads := makeFakeLeads(2)
	var count atomic.Int64

	err := processBatch(context.Background(), leads, 0, func(_ context.Context, _ model.LeadProfile) (*enrich.Result, error) {
		count.Add(1)
		return &enrich.Result{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Load())
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	leads := makeFakeLeads(2)

	err := processBatch(ctx, leads, 2, func(ctx context.Context, _ model.LeadProfile) (*enrich.Result, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &enrich.Result{}, nil
	})
	// Individual failures are swallowed, so this should not return an error.
	assert.NoError(t, err)
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var km keyedMutex
	var inCritical atomic.Int32
	var maxSeen atomic.Int32

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			unlock := km.lock("same-lead")
			defer unlock()

			n := inCritical.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			inCritical.Add(-1)
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Equal(t, int32(1), maxSeen.Load(), "only one goroutine may hold the same lead lock")
}
