package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/review"
)

var (
	reviewApprove bool
	reviewReject  bool
	reviewReason  string
)

var reviewCmd = &cobra.Command{
	Use:   "review <fact-id>",
	Short: "Approve or reject a pending fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if reviewApprove == reviewReject {
			return eris.New("exactly one of --approve or --reject is required")
		}

		decision := model.DecisionApprove
		if reviewReject {
			decision = model.DecisionReject
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		queue := review.NewQueue(st)

		result, err := queue.Decide(ctx, args[0], decision, reviewReason)
		if err != nil {
			return eris.Wrap(err, "review fact")
		}

		zap.L().Info("fact reviewed",
			zap.String("fact_id", result.Fact.ID),
			zap.String("status", string(result.Fact.Status)),
			zap.Bool("applied", result.Applied),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "approve the fact and apply it to the profile")
	reviewCmd.Flags().BoolVar(&reviewReject, "reject", false, "reject the fact")
	reviewCmd.Flags().StringVar(&reviewReason, "reason", "", "optional reviewer note")
	rootCmd.AddCommand(reviewCmd)
}
