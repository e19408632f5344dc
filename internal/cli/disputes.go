package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewDisputesCommand creates the disputes command.
func NewDisputesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "disputes",
		Short:         "List all pending payment requests",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			rows, err := e.admin.PendingDisputes(cmd.Context())
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return emit(cmd.OutOrStdout(), rootOpts.Format, rows)
			}

			out := cmd.OutOrStdout()
			for _, row := range rows {
				fmt.Fprintf(out, "%s  %s -> %s  %d min / %s  %q\n",
					row.Request.ID, row.CreditorCode, row.DebtorCode,
					row.Request.AmountTime, row.Request.AmountRegio.StringFixed(2),
					row.Request.Description)
			}
			fmt.Fprintf(out, "%d pending\n", len(rows))
			return nil
		},
	}
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	var approve, reject bool

	cmd := &cobra.Command{
		Use:           "resolve <request-id>",
		Short:         "Force a pending payment request to a decision",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve == reject {
				return fmt.Errorf("pass exactly one of --approve or --reject")
			}
			requestID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid request id %q: %w", args[0], err)
			}

			e, err := connect(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			req, err := e.admin.ResolveDispute(cmd.Context(), requestID, approve)
			if err != nil {
				return err
			}
			cmd.Printf("request %s is now %s\n", req.ID, req.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "execute the requested transfer")
	cmd.Flags().BoolVar(&reject, "reject", false, "reject the request")

	return cmd
}
