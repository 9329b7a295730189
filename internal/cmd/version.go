package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}
	cmd.Flags().Bool("short", false, "print the version number only")
	return cmd
}

func runVersion(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	info := version.GetInfo()

	if short, _ := cmd.Flags().GetBool("short"); short {
		return cc.Formatter().Format(info.Short())
	}
	if cc.Text() {
		return cc.Formatter().Format(info.String())
	}
	return cc.Formatter().Format(info)
}
