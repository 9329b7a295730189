package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/felixgeelhaar/secprops/internal/audit"
	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/config"
	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/gateway"
	"github.com/felixgeelhaar/secprops/internal/log"
	"github.com/felixgeelhaar/secprops/internal/metrics"
	"github.com/felixgeelhaar/secprops/internal/runtime"
	"github.com/felixgeelhaar/secprops/internal/ux"
)

// DefaultConfigFile is loaded from the working directory when present
const DefaultConfigFile = "secprops.yaml"

// CommandContext holds the persistent flags of a command invocation.
type CommandContext struct {
	ConfigPath  string
	Format      string
	JavaVersion string
	Quiet       bool
	Verbose     bool
	LogLevel    string

	Out    io.Writer
	ErrOut io.Writer
}

// NewCommandContext extracts the persistent flags from cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()
	cc := &CommandContext{Out: cmd.OutOrStdout(), ErrOut: cmd.ErrOrStderr()}

	var err error
	if cc.ConfigPath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cc.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cc.JavaVersion, err = flags.GetString("java-version"); err != nil {
		return nil, err
	}
	if cc.Quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, err
	}
	if cc.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}
	if cc.LogLevel, err = flags.GetString("log-level"); err != nil {
		return nil, err
	}

	if _, err := ux.NewFormatter(cc.Format, nil); err != nil {
		return nil, err
	}
	return cc, nil
}

// Formatter returns the formatter for the selected output format.
func (cc *CommandContext) Formatter() ux.Formatter {
	f, _ := ux.NewFormatter(cc.Format, &ux.FormatterOptions{Writer: cc.Out})
	return f
}

// Text reports whether human-readable output was requested.
func (cc *CommandContext) Text() bool {
	return cc.Format == "" || cc.Format == "text"
}

// Spinner starts a progress spinner on stderr. It only animates for text
// output on a terminal without verbose logging.
func (cc *CommandContext) Spinner(message string) *ux.Spinner {
	enabled := !cc.Quiet && !cc.Verbose && isTerminal(cc.ErrOut)
	return ux.StartSpinner(cc.ErrOut, message, enabled)
}

// configPath resolves the config file: flag, then $SECPROPS_CONFIG, then
// ./secprops.yaml if it exists.
func (cc *CommandContext) configPath() string {
	if cc.ConfigPath != "" {
		return cc.ConfigPath
	}
	if env := os.Getenv("SECPROPS_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// app is the wired set of components a command works with
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	registry *runtime.Registry
	engine   *exec.JarEngine
	audit    *audit.Log
	gateway  *gateway.Gateway
}

// newApp loads configuration and wires the gateway. m may be nil.
func newApp(cc *CommandContext, m *metrics.Metrics) (*app, error) {
	cfg, err := config.Load(cc.configPath())
	if err != nil {
		return nil, err
	}

	logCfg := log.FromSettings(cfg.Log.Level, cfg.Log.Format)
	logCfg.Output = cc.ErrOut
	if cc.LogLevel != "" {
		logCfg.Level = log.ParseLevel(cc.LogLevel)
	}
	if cc.Verbose {
		logCfg.Level = log.LevelDebug
		logCfg.Format = log.FormatText
	}
	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	registry, err := runtime.NewRegistry(cfg.Runtimes()...)
	if err != nil {
		return nil, fmt.Errorf("build version registry: %w", err)
	}

	invoker := exec.NewInvoker(exec.Config{Timeout: cfg.Engine.Timeout}, logger)
	engine := exec.NewJarEngine(registry, invoker, logger)

	auditLog := audit.New(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		MaxEntries: cfg.Audit.MaxEntries,
		Path:       cfg.Audit.Path,
	}, logger)

	gw := gateway.New(engine, auditLog, gateway.Config{
		DefaultVersion: runtime.VersionKey(cfg.Engine.DefaultVersion),
		Batch:          batch.Config{Concurrency: cfg.Batch.Concurrency},
	}, m, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		engine:   engine,
		audit:    auditLog,
		gateway:  gw,
	}, nil
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
