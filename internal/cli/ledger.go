package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func NewLedgerCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Engagement ledger maintenance",
	}
	cmd.AddCommand(newLedgerReconcileCommand(opts))
	return cmd
}

func newLedgerReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [user-id...]",
		Short: "Reset cached engagement points to the ledger sum",
		Long:  "Without arguments every user is reconciled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseUserIDs(args)
			if err != nil {
				return err
			}

			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				if len(ids) == 0 {
					if ids, err = env.Services.Users.ListIDs(ctx); err != nil {
						return err
					}
				}

				for _, id := range ids {
					total, err := env.Services.Engagement.Reconcile(ctx, id)
					if err != nil {
						return fmt.Errorf("reconcile %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", id, total)
				}
				return nil
			})
		},
	}
}

func parseUserIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
