package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewReputationCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reputation",
		Short: "Reputation score maintenance",
	}
	cmd.AddCommand(newReputationRecomputeCommand(opts))
	return cmd
}

func newReputationRecomputeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute [user-id...]",
		Short: "Recompute cached reputation scores",
		Long:  "Without arguments every user is recomputed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseUserIDs(args)
			if err != nil {
				return err
			}

			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				if len(ids) == 0 {
					updated, err := env.Services.Reputation.RecomputeAll(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d users\n", updated)
					return nil
				}

				for _, id := range ids {
					score, err := env.Services.Reputation.Recompute(ctx, nil, id)
					if err != nil {
						return fmt.Errorf("recompute %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", id, score)
				}
				return nil
			})
		},
	}
}
