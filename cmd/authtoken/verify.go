package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/authtoken/auth/token"
)

func newVerifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a token against the directory",
		Long: `Check a token the way the middleware would and print the user and
expiry. A rejected token prints the reason and exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*root)
			if err != nil {
				return err
			}
			dir, p, err := newPipeline(cfg, commandLogger(cfg))
			if err != nil {
				return err
			}

			res, err := p.Verifier().Verify(cmd.Context(), args[0], dir)
			if r, ok := token.AsRejection(err); ok {
				return fmt.Errorf("token rejected: %s", r.Reason)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:    %s\n", res.Username)
			fmt.Fprintf(out, "expires: %s (in %s)\n", res.ExpiresAt.UTC().Format(time.RFC3339),
				time.Until(res.ExpiresAt).Round(time.Second))
			if res.RenewDue {
				fmt.Fprintln(out, "renew:   due")
			}
			return nil
		},
	}
}
