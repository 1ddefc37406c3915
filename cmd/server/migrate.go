package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the bonds schema in PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.db == nil {
				return errors.New("migrate requires the postgres storage driver")
			}
			if err := a.db.Migrate(ctx); err != nil {
				return err
			}

			a.log.Infow("schema migrated")
			return nil
		},
	}
}
