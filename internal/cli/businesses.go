package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/ReviewBoost/app/repository"
)

func newBusinessesCmd(load RepoLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "businesses",
		Short: "List businesses with owner, plan and feedback count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := load()
			if err != nil {
				return err
			}
			return runBusinesses(cmd.OutOrStdout(), repos)
		},
	}
}

func runBusinesses(w io.Writer, repos *repository.Repositories) error {
	rows, err := repos.Business.ListWithStats()
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOWNER\tPLAN\tFEEDBACK")
	for _, r := range rows {
		plan := "free"
		if r.IsPro {
			plan = "pro"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", r.BusinessID, r.BusinessName, r.OwnerEmail, plan, r.FeedbackCount)
	}
	return tw.Flush()
}
