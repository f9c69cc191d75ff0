package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/authtoken/auth/expiry"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/observability"
)

func newMintCmd(root *rootOptions) *cobra.Command {
	var (
		username string
		expires  string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue a token for a directory user",
		Long: `Issue a token for a user in the directory without a password, for
service accounts and scripts. The token is printed on stdout.

The configured salt must be fixed (auth.auth_token_hash.salt); a token
minted with a generated salt is not accepted by any other process.`,
		Example: `  authtoken mint --user alice
  authtoken mint --user ci --expires "30 days"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*root)
			if err != nil {
				return err
			}
			var lifetime time.Duration
			if expires != "" {
				if lifetime, err = expiry.ParseDuration(expires); err != nil {
					return apperrors.Validation("invalid --expires: " + err.Error())
				}
				if lifetime <= 0 {
					return apperrors.Validation("invalid --expires: must be positive")
				}
			}

			ctx := cmd.Context()
			dir, p, err := newPipeline(cfg, commandLogger(cfg))
			if err != nil {
				return err
			}
			if p.CheckHealth(ctx).Status == observability.HealthStatusDegraded {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: salt is generated, the token is only valid for this process")
			}
			secret, err := dir.LookupSecret(ctx, username)
			if err != nil {
				return fmt.Errorf("user %q: %w", username, err)
			}
			t, err := p.Minter().Issue(ctx, username, secret, lifetime)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", t.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "username to mint for")
	cmd.Flags().StringVar(&expires, "expires", "", `token lifetime, e.g. "12 hours" (default is auth.expires)`)
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
