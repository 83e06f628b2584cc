package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "snare",
		Short: "Operator console for the snare conversational honeypot",
		Long: "snare classifies harmful-intent messages and drives baited conversations\n" +
			"through the configured completion gateway. Configuration is read from\n" +
			"config.toml, config.<SNARE_ENV>.toml and SNARE_* environment variables.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log pipeline stages to stderr")

	cmd.AddCommand(newClassifyCmd(flags))
	cmd.AddCommand(newConverseCmd(flags))

	return cmd
}
