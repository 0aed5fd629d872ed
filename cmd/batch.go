package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ccrestaurant/lead-intel/internal/enrich"
	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

var (
	batchLimit  int
	batchSearch string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch enrich leads from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.Store.ListLeads(ctx, store.LeadFilter{
			Search: batchSearch,
			Limit:  batchLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list leads")
		}

		return processBatch(ctx, leads, cfg.Batch.MaxConcurrentLeads, func(ctx context.Context, lead model.LeadProfile) (*enrich.Result, error) {
			return env.EnrichLead(ctx, lead.ID, 0)
		})
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of leads to process")
	batchCmd.Flags().StringVar(&batchSearch, "search", "", "only process leads matching this name filter")
	rootCmd.AddCommand(batchCmd)
}

// enrichFunc is the callback signature for running enrichment on a lead.
type enrichFunc func(ctx context.Context, lead model.LeadProfile) (*enrich.Result, error)

// processBatch enriches leads concurrently. Individual failures are logged
// and counted but never abort the batch; within one lead, rounds stay
// sequential inside the orchestrator.
func processBatch(ctx context.Context, leads []model.LeadProfile, concurrency int, enrich enrichFunc) error {
	if len(leads) == 0 {
		zap.L().Info("no leads found")
		return nil
	}

	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("leads", len(leads)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, lead := range leads {
		g.Go(func() error {
			log := zap.L().With(
				zap.String("lead_id", lead.ID),
				zap.String("company", lead.CompanyName),
			)

			result, err := enrich(gctx, lead)
			if err != nil {
				failed.Add(1)
				log.Error("enrichment failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("enrichment complete",
				zap.Int("completeness", result.Completeness),
				zap.Int("opportunity_score", result.OpportunityScore),
				zap.Int("rounds", result.Rounds),
				zap.Int("round_errors", len(result.Errors)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
