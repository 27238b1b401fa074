package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himTresor1/celia-sub001/internal/bootstrap"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				if err := bootstrap.Migrate(env.DB); err != nil {
					return err
				}
				if seed {
					if err := bootstrap.SeedDemoUsers(env.DB); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "also create demo users")
	return cmd
}
