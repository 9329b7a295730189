package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/exitcode"
	"github.com/felixgeelhaar/secprops/internal/gateway"
	"github.com/felixgeelhaar/secprops/internal/ux"
)

func newFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Encrypt or decrypt a .properties file",
		Long: `Transform the entries of a key=value properties file.

encrypt encrypts every entry; decrypt only touches values wrapped in ![...].
Comments, blank lines and malformed lines are not carried into the output.
Entries that fail keep their original value and the command exits with
status 6.`,
	}
	cmd.AddCommand(newFileOpCmd(exec.OpEncrypt), newFileOpCmd(exec.OpDecrypt))
	return cmd
}

func newFileOpCmd(op exec.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op.String() + " <path|->",
		Short: strings.ToUpper(op.String()[:1]) + op.String()[1:] + " the entries of a properties file",
		Example: fmt.Sprintf(`  secprops file %s app.properties --password-env MULE_KEY > out.properties
  secprops file %s app.properties --in-place -j 11`, op, op),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd, op, args[0])
		},
	}
	cmd.Flags().String("output", "", "write the transformed file here instead of stdout")
	cmd.Flags().Bool("in-place", false, "overwrite the input file")
	cmd.MarkFlagsMutuallyExclusive("output", "in-place")
	addPasswordFlags(cmd)
	return cmd
}

func runFile(cmd *cobra.Command, op exec.Operation, path string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	inPlace, _ := cmd.Flags().GetBool("in-place")
	if inPlace {
		if path == "-" {
			return fmt.Errorf("--in-place needs a file path, not stdin")
		}
		output = path
	}

	content, mode, err := readFile(cmd, path)
	if err != nil {
		return err
	}
	password, err := masterPassword(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cc, nil)
	if err != nil {
		return err
	}

	sp := cc.Spinner("Reading " + path)
	var done atomic.Int32
	req := gateway.FileRequest{
		Content:        content,
		MasterPassword: password,
		JavaVersion:    cc.JavaVersion,
		OnItem: func(int, batch.ItemResult) {
			sp.Update(fmt.Sprintf("Processed %d entries", done.Add(1)))
		},
	}

	var res *gateway.FileResult
	if op == exec.OpEncrypt {
		res, err = a.gateway.EncryptFile(cmd.Context(), req)
	} else {
		res, err = a.gateway.DecryptFile(cmd.Context(), req)
	}
	sp.Stop("")
	if err != nil {
		return err
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(ux.EnsureNewline(res.Content)), mode); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	}

	switch {
	case !cc.Text():
		if err := cc.Formatter().Format(res); err != nil {
			return err
		}
	case output == "":
		fmt.Fprint(cc.Out, ux.EnsureNewline(res.Content))
	}

	if cc.Text() {
		writeFileSummary(cc, op, path, output, res)
	}
	if res.FailedCount > 0 {
		return exitcode.ErrPartialFailure
	}
	return nil
}

func writeFileSummary(cc *CommandContext, op exec.Operation, path, output string, res *gateway.FileResult) {
	if !cc.Quiet {
		fields := []ux.Field{
			{Label: "Input", Value: ux.Path.Sprint(path)},
			{Label: "Entries", Value: fmt.Sprintf("%d", res.OriginalCount)},
			{Label: "Targeted", Value: ux.RenderCounts(res.TargetCount, res.SucceededCount, res.FailedCount)},
		}
		if len(res.Skipped) > 0 {
			fields = append(fields, ux.Field{Label: "Skipped", Value: ux.Warning.Sprintf("%d malformed lines", len(res.Skipped))})
		}
		if output != "" {
			fields = append(fields, ux.Field{Label: "Output", Value: ux.Path.Sprint(output)})
		}
		fmt.Fprintln(cc.ErrOut, ux.RenderSummary("File "+op.String(), fields))
	}

	if len(res.Errors) == 0 {
		return
	}
	failures := make([]ux.Outcome, len(res.Errors))
	for i, e := range res.Errors {
		failures[i] = ux.Outcome{Key: e.Key, Detail: e.Error}
	}
	fmt.Fprintln(cc.ErrOut, ux.RenderOutcomes(failures))
}

// readFile returns the content of path, or stdin for "-", with the mode to
// write it back with.
func readFile(cmd *cobra.Command, path string) (string, os.FileMode, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", 0, fmt.Errorf("read stdin: %w", err)
		}
		return string(data), 0o600, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("read %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), info.Mode().Perm(), nil
}
