package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/authtoken/auth/directory"
	"github.com/kbukum/authtoken/auth/password"
	apperrors "github.com/kbukum/authtoken/errors"
)

func newHashPasswordCmd(root *rootOptions) *cobra.Command {
	var (
		username    string
		name        string
		permissions []string
	)
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		Long: `Read a password from the first line of stdin and hash it with the
configured algorithm. Without --user the hash is printed. With --user the
user is added to (or updated in) the directory file, which is created if
missing. Updating a password revokes every token the user holds.`,
		Example: `  echo 's3cret' | authtoken hash-password
  authtoken hash-password --user alice --name "Alice" --perm admin --perm "reports:*" < pw.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*root)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hasher, err := password.NewHasher(cfg.Password)
			if err != nil {
				return err
			}
			digest, err := hasher.Hash(pw)
			if err != nil {
				return err
			}
			if username == "" {
				fmt.Fprintln(cmd.OutOrStdout(), digest)
				return nil
			}

			dir, err := directory.Open(cfg.Directory)
			if err != nil {
				return err
			}
			entry := directory.Entry{Name: name, PasswordHash: digest, Permissions: permissions}
			if err := dir.Put(username, entry); err != nil {
				return err
			}
			if err := dir.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s\n", username, cfg.Directory)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "store the hash for this user in the directory")
	cmd.Flags().StringVar(&name, "name", "", "display name for --user")
	cmd.Flags().StringArrayVar(&permissions, "perm", nil, "permission to grant --user (repeatable)")
	return cmd
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return "", apperrors.Validation("no password on stdin")
	}
	pw := strings.TrimRight(sc.Text(), "\r")
	if pw == "" {
		return "", apperrors.Validation("no password on stdin")
	}
	return pw, nil
}
