package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Print community-wide ledger statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.admin.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return emit(cmd.OutOrStdout(), rootOpts.Format, stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Members:          %d total, %d active\n", stats.TotalMembers, stats.ActiveMembers)
			fmt.Fprintf(out, "In circulation:   %d min, %s regio\n", stats.CirculationTime, stats.CirculationRegio.StringFixed(2))
			fmt.Fprintf(out, "Net balance:      %d min, %s regio\n", stats.NetTime, stats.NetRegio.StringFixed(2))
			fmt.Fprintf(out, "Pending requests: %d\n", stats.PendingRequests)
			return nil
		},
	}
}
