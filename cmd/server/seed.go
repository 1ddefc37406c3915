package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo bond portfolio for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("invalid owner %q: %w", owner, err)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.db != nil {
				if err := a.db.Migrate(ctx); err != nil {
					return err
				}
			}

			created, err := a.seeder.Seed(ctx, ownerID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d bonds for %s\n", created, ownerID)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner UUID")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
