// Package cmd implements the secprops command line.
package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the complete command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "secprops",
		Short: "Encrypt and decrypt MuleSoft secure properties",
		Long: `secprops encrypts and decrypts configuration values with the MuleSoft
secure properties tool. Values, batches and whole .properties files are
processed by the JAR for the selected Java version (1.8, 11 or 17).

The same operations are available over HTTP with 'secprops serve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: $SECPROPS_CONFIG or ./secprops.yaml when present)")
	flags.StringP("format", "o", "text", "output format: text, json or yaml")
	flags.StringP("java-version", "j", "", "Java version of the engine: 1.8, 11 or 17 (default from config)")
	flags.BoolP("quiet", "q", false, "suppress progress and summaries")
	flags.BoolP("verbose", "v", false, "log engine calls to stderr")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "", "log level: debug, info, warn or error (default from config)")

	root.AddCommand(
		newEncryptCmd(),
		newDecryptCmd(),
		newBatchCmd(),
		newFileCmd(),
		newHistoryCmd(),
		newVersionsCmd(),
		newKeygenCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// ExecuteContext runs the command line with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
