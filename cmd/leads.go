package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Manage lead profiles",
	Long:  "Commands for listing, adding, inspecting, and deleting restaurant leads.",
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
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

		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			Search: search,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

// -- leads add --

var leadsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new lead",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("name")
		website, _ := cmd.Flags().GetString("website")
		phone, _ := cmd.Flags().GetString("phone")
		address, _ := cmd.Flags().GetString("address")
		town, _ := cmd.Flags().GetString("town")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		lead := &model.LeadProfile{
			ID:          uuid.NewString(),
			CompanyName: name,
			Website:     website,
			Phone:       phone,
			Address:     address,
			Town:        town,
		}

		if err := st.CreateLead(ctx, lead); err != nil {
			return eris.Wrap(err, "leads add")
		}

		fmt.Println(lead.ID)
		return nil
	},
}

// -- leads show --

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show full details of a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		lead, err := st.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "leads show")
		}

		out := struct {
			*model.LeadProfile
			Signals  []model.PainSignal         `json:"pain_signals,omitempty"`
			Analysis *model.OpportunityAnalysis `json:"analysis,omitempty"`
		}{LeadProfile: lead}

		if signals, err := st.ListPainSignals(ctx, lead.ID); err == nil {
			out.Signals = signals
		}
		if analysis, err := st.GetAnalysis(ctx, lead.ID); err == nil {
			out.Analysis = analysis
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// -- leads delete --

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <lead-id>",
	Short: "Delete a lead and all its facts, signals, and analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteLead(ctx, args[0]); err != nil {
			return eris.Wrap(err, "leads delete")
		}

		fmt.Fprintln(os.Stderr, "Deleted.")
		return nil
	},
}

func init() {
	leadsListCmd.Flags().String("search", "", "filter by company name")
	leadsListCmd.Flags().Int("limit", 50, "max number of leads to display")
	leadsListCmd.Flags().Int("offset", 0, "number of leads to skip")

	leadsAddCmd.Flags().String("name", "", "company name (required)")
	leadsAddCmd.Flags().String("website", "", "website URL")
	leadsAddCmd.Flags().String("phone", "", "phone number")
	leadsAddCmd.Flags().String("address", "", "street address")
	leadsAddCmd.Flags().String("town", "", "town or city")
	_ = leadsAddCmd.MarkFlagRequired("name")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsAddCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsDeleteCmd)
	rootCmd.AddCommand(leadsCmd)
}

// formatLeadsList writes a tabular list of leads to w.
func formatLeadsList(out io.Writer, leads []model.LeadProfile) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tTOWN\tCOMPLETE\tSCORE\tLAST_ENRICHED")
	_, _ = fmt.Fprintln(w, "--\t-------\t----\t--------\t-----\t-------------")

	for _, l := range leads {
		name := l.CompanyName
		if len(name) > 30 {
			name = name[:27] + "..."
		}

		enriched := "never"
		if l.LastEnrichedAt != nil {
			enriched = l.LastEnrichedAt.Format("2006-01-02 15:04")
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%d\t%s\n",
			truncateID(l.ID),
			name,
			l.Town,
			l.Completeness,
			l.OpportunityScore,
			enriched,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
