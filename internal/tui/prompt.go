// Package tui holds the interactive prompts of the CLI.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// ciEnvVars mark non-interactive CI environments
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
}

// PromptForPassword asks for a secret without echoing it
func PromptForPassword(title string) (string, error) {
	var value string

	input := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if s == "" {
				return fmt.Errorf("value is required")
			}
			return nil
		}).
		Value(&value)

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts may be shown: stdin is a terminal
// and no CI environment is detected.
func ShouldPrompt() bool {
	return !inCI(os.LookupEnv) && IsInteractive()
}

func inCI(lookup func(string) (string, bool)) bool {
	for _, name := range ciEnvVars {
		if v, ok := lookup(name); ok && v != "" {
			return true
		}
	}
	return false
}
