package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/janskylukas/bond-service/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner",
		Long:  "Issue a bearer token for an owner. A random owner is generated when --owner is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID := uuid.New()
			if owner != "" {
				parsed, err := uuid.Parse(owner)
				if err != nil {
					return fmt.Errorf("invalid owner %q: %w", owner, err)
				}
				ownerID = parsed
			}

			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.GetTokenExpiry())
			if err != nil {
				return err
			}

			token, err := tokens.Issue(ownerID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner UUID")

	return cmd
}
