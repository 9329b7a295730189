package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/health"
	"github.com/felixgeelhaar/secprops/internal/runtime"
	"github.com/felixgeelhaar/secprops/internal/ux"
)

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the supported Java versions",
		Long: `List the Java versions the engine supports and the default.

With --check, each version's Java runtime and JAR are checked and the
resolved paths are shown.`,
		Args: cobra.NoArgs,
		RunE: runVersions,
	}
	cmd.Flags().Bool("check", false, "check the Java runtime and JAR of each version")
	return cmd
}

// versionStatus is the --check report of one version
type versionStatus struct {
	Version  string                    `json:"version" yaml:"version"`
	Default  bool                      `json:"default" yaml:"default"`
	Java     string                    `json:"java" yaml:"java"`
	Artifact string                    `json:"artifact" yaml:"artifact"`
	Status   health.Status             `json:"status" yaml:"status"`
	Checks   map[string]*health.Result `json:"checks" yaml:"checks"`
}

func runVersions(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cc, nil)
	if err != nil {
		return err
	}

	info := a.gateway.Versions()
	check, _ := cmd.Flags().GetBool("check")
	if !check {
		if !cc.Text() {
			return cc.Formatter().Format(info)
		}
		for _, v := range info.Supported {
			if v == info.Default {
				fmt.Fprintf(cc.Out, "%s %s\n", v, ux.Muted.Sprint("default"))
				continue
			}
			fmt.Fprintln(cc.Out, v)
		}
		return nil
	}

	statuses := checkVersions(cmd.Context(), a.registry, info.Default)
	if !cc.Text() {
		return cc.Formatter().Format(statuses)
	}
	for _, s := range statuses {
		fields := []ux.Field{
			{Label: "Java", Value: ux.Path.Sprint(s.Java)},
			{Label: "JAR", Value: ux.Path.Sprint(s.Artifact)},
		}
		names := make([]string, 0, len(s.Checks))
		for name := range s.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fields = append(fields, ux.Field{Label: name, Value: renderCheck(s.Checks[name])})
		}
		title := "Java " + s.Version
		if s.Default {
			title += " (default)"
		}
		fmt.Fprintln(cc.Out, ux.RenderSummary(title, fields))
	}
	return nil
}

// checkVersions runs the runtime checkers of every supported version
func checkVersions(ctx context.Context, registry *runtime.Registry, def string) []versionStatus {
	statuses := make([]versionStatus, 0, len(runtime.Supported))
	for _, v := range runtime.Supported {
		m := health.NewManager()
		m.AddChecker(health.NewJavaChecker(registry, v))
		m.AddChecker(health.NewArtifactChecker(registry, v))
		checks := m.Check(ctx)

		s := versionStatus{
			Version: string(v),
			Default: string(v) == def,
			Status:  m.OverallStatus(checks),
			Checks:  checks,
		}
		if exe, err := registry.Executable(v); err == nil {
			s.Java = exe
		}
		if rt, err := registry.Runtime(v); err == nil {
			s.Artifact = rt.Artifact
		}
		statuses = append(statuses, s)
	}
	return statuses
}

func renderCheck(r *health.Result) string {
	var b strings.Builder
	switch r.Status {
	case health.StatusHealthy:
		b.WriteString(ux.CheckMark)
	case health.StatusDegraded:
		b.WriteString(ux.Warning.Sprint("!"))
	default:
		b.WriteString(ux.CrossMark)
	}
	b.WriteString(" " + r.Message)
	if s, ok := r.Details["suggestion"].(string); ok && s != "" {
		b.WriteString(" " + ux.Muted.Sprint(s))
	}
	return b.String()
}
