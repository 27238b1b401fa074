package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewPulsesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pulses",
		Short: "Pending pulse maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete pending pulses whose window has expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				removed, err := env.Services.Connections.SweepExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired pulses\n", removed)
				return nil
			})
		},
	})
	return cmd
}
