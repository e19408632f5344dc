package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSweepFeesCommand creates the sweep-fees command.
func NewSweepFeesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sweep-fees",
		Short:         "Debit the monthly membership fee from every active member",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.settlement.SweepMembershipFees(cmd.Context())
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return emit(cmd.OutOrStdout(), rootOpts.Format, report)
			}

			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				if r.Error != "" {
					fmt.Fprintf(out, "%s  %s  %s\n", r.UserCode, r.Status, r.Error)
				} else {
					fmt.Fprintf(out, "%s  %s\n", r.UserCode, r.Status)
				}
			}
			fmt.Fprintf(out, "swept %d members: %d ok, %d failed\n",
				len(report.Results), report.Succeeded, report.Failed)
			return nil
		},
	}
}

// NewDemurrageCommand creates the demurrage command.
func NewDemurrageCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "demurrage",
		Short:         "Tax idle TIME balances above the hoarding threshold",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.settlement.RunDemurrage(cmd.Context())
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return emit(cmd.OutOrStdout(), rootOpts.Format, report)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d accounts, charged %d (%d min total), %d failed\n",
				report.Scanned, report.Charged, report.TotalMinutes, report.FailedCharges)
			return nil
		},
	}
}
