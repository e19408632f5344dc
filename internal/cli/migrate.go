package cli

import (
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending database migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.repos.RunMigrations(cmd.Context(), e.db); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}
