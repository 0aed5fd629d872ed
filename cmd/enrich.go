package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var enrichRounds int

var enrichCmd = &cobra.Command{
	Use:   "enrich <lead-id>",
	Short: "Run an enrichment cycle for a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.EnrichLead(ctx, args[0], enrichRounds)
		if err != nil {
			return eris.Wrap(err, "enrich lead")
		}

		zap.L().Info("enrichment complete",
			zap.String("lead_id", result.LeadID),
			zap.Int("rounds", result.Rounds),
			zap.Bool("converged", result.Converged),
			zap.Int("completeness", result.Completeness),
			zap.Int("opportunity_score", result.OpportunityScore),
			zap.Int("facts_queued", result.FactsQueued),
			zap.Int("errors", len(result.Errors)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichRounds, "rounds", 0, "max enrichment rounds (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
