package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/version"
)

type rootOptions struct {
	configFile string
	envFile    string
	directory  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "authtoken",
		Short: "Stateless token authentication for HTTP services",
		Long: `authtoken issues and checks self-contained bearer tokens of the form
username:expiresAt:signature, where the signature is a salted PBKDF2 digest
over the username, the user's secret and the expiry.

The serve command runs an HTTP API protected by the token middleware, with a
YAML user directory supplying passwords, secrets and permissions. The other
commands mint, verify and hash credentials against the same configuration.`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		"config file (default searches ./cmd/authtoken, ./config and the working directory)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "",
		".env file loaded before the environment")
	cmd.PersistentFlags().StringVar(&opts.directory, "directory", "",
		"user directory file, overrides the directory setting")

	cmd.AddCommand(
		newServeCmd(opts),
		newMintCmd(opts),
		newVerifyCmd(opts),
		newHashPasswordCmd(opts),
	)
	return cmd
}

// commandLogger is the logger for one-shot commands. It writes to stderr
// and only logs below warn when the configured level is debug or trace.
func commandLogger(cfg *Config) *logger.Logger {
	logCfg := cfg.Logging
	logCfg.Output = "stderr"
	if logCfg.Level != "debug" && logCfg.Level != "trace" {
		logCfg.Level = "warn"
	}
	return logger.New(&logCfg, cfg.Name)
}
