package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/audit"
	"github.com/felixgeelhaar/secprops/internal/tui"
	"github.com/felixgeelhaar/secprops/internal/ux"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the operation history",
		Long: `The history records each operation with its Java version, outcome and a
digest of the ciphertext. It never stores plaintext, passwords or full
ciphertexts. History is off unless audit.enabled is set in the config or
ENABLE_HISTORY=true.`,
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryClearCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent operations, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	cmd.Flags().IntP("limit", "n", audit.DefaultListLimit, "maximum number of entries")
	return cmd
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	a, err := newApp(cc, nil)
	if err != nil {
		return err
	}

	page, err := a.gateway.History(limit)
	if err != nil {
		return err
	}
	if !cc.Text() {
		return cc.Formatter().Format(page)
	}
	if page.Count == 0 {
		fmt.Fprintln(cc.ErrOut, ux.Muted.Sprint("No history entries"))
		return nil
	}

	rows := make([][]string, 0, len(page.History))
	for _, e := range page.History {
		result := ux.Success.Sprint("ok")
		if !e.Success {
			result = ux.Failure.Sprint(e.Error)
		}
		rows = append(rows, []string{
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(e.Operation), e.Version, orDash(e.Key), result, orDash(shortDigest(e.Digest)),
		})
	}
	_, err = fmt.Fprintln(cc.Out, ux.RenderTable(
		[]string{"TIME", "OPERATION", "JAVA", "KEY", "RESULT", "DIGEST"}, rows))
	return err
}

func newHistoryClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cc, nil)
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && tui.ShouldPrompt() {
		ok, err := tui.PromptForConfirmation("Delete the whole operation history?", false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cc.ErrOut, ux.Muted.Sprint("Aborted"))
			return nil
		}
	}

	if err := a.gateway.ClearHistory(); err != nil {
		return err
	}
	if cc.Text() {
		fmt.Fprintln(cc.ErrOut, ux.Success.Sprint(ux.CheckMark+" History cleared"))
		return nil
	}
	return cc.Formatter().Format(map[string]string{"message": "History cleared"})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return strings.TrimSpace(d)
}
