package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Inspect the fact review queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		leadID, _ := cmd.Flags().GetString("lead")
		limit, _ := cmd.Flags().GetInt("limit")

		facts, err := st.ListFacts(ctx, store.FactFilter{
			Status: model.FactStatus(status),
			LeadID: leadID,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "facts list")
		}

		if len(facts) == 0 {
			fmt.Fprintln(os.Stderr, "No facts found.")
			return nil
		}

		formatFactsList(os.Stdout, facts)
		return nil
	},
}

func init() {
	factsCmd.Flags().String("status", string(model.FactPending), "filter by status (pending, approved, rejected; empty for all)")
	factsCmd.Flags().String("lead", "", "filter by lead ID")
	factsCmd.Flags().Int("limit", 50, "max number of facts to display")
	rootCmd.AddCommand(factsCmd)
}

// formatFactsList writes a tabular list of facts to w.
func formatFactsList(out io.Writer, facts []model.AtomicFact) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLEAD\tFIELD\tVALUE\tCONF\tSOURCE\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t----\t------\t------")

	for _, f := range facts {
		value := f.FieldValue
		if len(value) > 40 {
			value = value[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
			truncateID(f.ID),
			truncateID(f.LeadID),
			f.FieldName,
			value,
			f.Confidence,
			f.Source,
			f.Status,
		)
	}
	_ = w.Flush()
}
