package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/exitcode"
	"github.com/felixgeelhaar/secprops/internal/gateway"
	"github.com/felixgeelhaar/secprops/internal/ux"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Encrypt or decrypt many keyed values",
		Long: `Process a list of keyed values with one master password.

The input is a JSON or YAML list of {key, value} objects, or an object with
a "properties" list. Every item is processed even when others fail; the
command exits with status 6 when any item failed.`,
	}
	cmd.AddCommand(newBatchOpCmd(exec.OpEncrypt), newBatchOpCmd(exec.OpDecrypt))
	return cmd
}

func newBatchOpCmd(op exec.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op.String(),
		Short: strings.ToUpper(op.String()[:1]) + op.String()[1:] + " every item of a list",
		Example: fmt.Sprintf(`  secprops batch %s --input items.yaml --password-env MULE_KEY
  cat items.json | secprops batch %s -i - -o json`, op, op),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, op)
		},
	}
	cmd.Flags().StringP("input", "i", "-", `items file, "-" for stdin`)
	addPasswordFlags(cmd)
	return cmd
}

func runBatch(cmd *cobra.Command, op exec.Operation) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	items, err := readItems(cmd, input, op == exec.OpDecrypt)
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

	sp := cc.Spinner(fmt.Sprintf("Processing %d items", len(items)))
	var done atomic.Int32
	req := gateway.BatchRequest{
		Items:          items,
		MasterPassword: password,
		JavaVersion:    cc.JavaVersion,
		OnItem: func(int, batch.ItemResult) {
			sp.Update(fmt.Sprintf("Processed %d/%d items", done.Add(1), len(items)))
		},
	}

	var report *batch.Report
	if op == exec.OpEncrypt {
		report, err = a.gateway.BatchEncrypt(cmd.Context(), req)
	} else {
		report, err = a.gateway.BatchDecrypt(cmd.Context(), req)
	}
	sp.Stop("")
	if err != nil {
		return err
	}

	if err := writeReport(cc, op, report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return exitcode.ErrPartialFailure
	}
	return nil
}

// writeReport prints key=value lines for text output, or the full report.
// Text summaries go to stderr so stdout stays pipeable.
func writeReport(cc *CommandContext, op exec.Operation, report *batch.Report) error {
	if !cc.Text() {
		return cc.Formatter().Format(report)
	}

	var failures []ux.Outcome
	for _, item := range report.Items {
		if item.Success {
			fmt.Fprintf(cc.Out, "%s=%s\n", item.Key, item.Derived)
			continue
		}
		failures = append(failures, ux.Outcome{Key: item.Key, Detail: item.Error})
	}

	if !cc.Quiet {
		fmt.Fprintln(cc.ErrOut, ux.RenderSummary("Batch "+op.String(), []ux.Field{
			{Label: "Items", Value: ux.RenderCounts(report.Total, report.Succeeded, report.Failed)},
		}))
	}
	if len(failures) > 0 {
		fmt.Fprintln(cc.ErrOut, ux.RenderOutcomes(failures))
	}
	return nil
}

// inputItem is one batch entry. Decrypt input may carry the ciphertext
// under encrypted instead of value.
type inputItem struct {
	Key       string `yaml:"key"`
	Value     string `yaml:"value"`
	Encrypted string `yaml:"encrypted"`
}

// itemsDocument is the object form of a batch input
type itemsDocument struct {
	Properties []inputItem `yaml:"properties"`
}

// readItems loads batch items from path, or stdin for "-". JSON input is
// read by the YAML decoder.
func readItems(cmd *cobra.Command, path string, decrypt bool) ([]batch.Item, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var inputs []inputItem
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		var doc itemsDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "items must be a list of {key, value} or {key, encrypted} objects", err)
		}
		inputs = doc.Properties
	}
	if len(inputs) == 0 {
		return nil, errors.NewInvalidRequestError("missing or invalid properties array")
	}

	items := make([]batch.Item, 0, len(inputs))
	for _, in := range inputs {
		value := in.Value
		if decrypt && in.Encrypted != "" {
			value = in.Encrypted
		}
		items = append(items, batch.Item{Key: in.Key, Value: value})
	}
	return items, nil
}
