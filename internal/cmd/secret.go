package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/tui"
)

// EnvMasterPassword supplies the master password when no flag is given
const EnvMasterPassword = "SECPROPS_MASTER_PASSWORD"

// addPasswordFlags registers the master password flags on cmd.
func addPasswordFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("password", "p", "", "master password (prefer --password-env or $"+EnvMasterPassword+")")
	cmd.Flags().String("password-env", "", "name of an environment variable holding the master password")
}

// masterPassword resolves the master password in order: --password,
// --password-env, $SECPROPS_MASTER_PASSWORD, then an interactive prompt.
func masterPassword(cmd *cobra.Command) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}
	if name, _ := cmd.Flags().GetString("password-env"); name != "" {
		pw := os.Getenv(name)
		if pw == "" {
			return "", errors.NewMissingParameterError("masterPassword").
				WithSuggestion(fmt.Sprintf("environment variable %s is empty or unset", name))
		}
		return pw, nil
	}
	if pw := os.Getenv(EnvMasterPassword); pw != "" {
		return pw, nil
	}
	if tui.ShouldPrompt() {
		return tui.PromptForPassword("Master password")
	}
	return "", errors.NewMissingParameterError("masterPassword").
		WithSuggestions("pass --password-env NAME", "or set $"+EnvMasterPassword)
}

// readValue returns args[0], or stdin when the argument is "-" or missing
// and stdin is not a terminal. A single trailing newline is dropped.
func readValue(cmd *cobra.Command, args []string, name string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	in := cmd.InOrStdin()
	if len(args) == 0 {
		if f, ok := in.(*os.File); ok && isTerminal(f) {
			return "", errors.NewMissingParameterError(name)
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read %s from stdin: %w", name, err)
	}
	value := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	if value == "" {
		return "", errors.NewMissingParameterError(name)
	}
	return value, nil
}
