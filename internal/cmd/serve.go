package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/health"
	"github.com/felixgeelhaar/secprops/internal/metrics"
	"github.com/felixgeelhaar/secprops/internal/server"
	"github.com/felixgeelhaar/secprops/internal/ux"
	"github.com/felixgeelhaar/secprops/internal/version"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the encryption API over HTTP",
		Long: `Start the HTTP API with health probes and Prometheus metrics.

Endpoints:
  /api/v1/...     - encrypt, decrypt, batch, file, key, versions, history
  /health/live    - Liveness probe (process alive and responsive)
  /health/ready   - Readiness probe (Java runtimes and JARs checked)
  /health/startup - Startup probe (finished initialization)
  /healthz        - Backward-compatible readiness endpoint
  /metrics        - Prometheus metrics

On SIGTERM or SIGINT the server fails readiness, stops accepting
connections and waits for in-flight requests, including running engine
processes, up to the shutdown timeout.`,
		Example: `  # Listen on the configured address (default :8080)
  secprops serve

  # Listen elsewhere with a longer drain
  secprops serve --address 127.0.0.1:9090 --shutdown-timeout 60s`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("address", "", "address to listen on (default from config or $PORT)")
	cmd.Flags().Duration("shutdown-timeout", 0, "maximum time to drain connections on shutdown (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	reg, m := metrics.NewRegistry()
	a, err := newApp(cc, m)
	if err != nil {
		return err
	}

	cfg := a.cfg.Server
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		cfg.Address = addr
	}
	if d, _ := cmd.Flags().GetDuration("shutdown-timeout"); d > 0 {
		cfg.ShutdownTimeout = d
	}

	info := version.GetInfo()
	pm := health.NewProbeManager(info.Version)
	for _, c := range health.RuntimeCheckers(a.registry) {
		pm.AddChecker(c)
	}

	srv := server.NewServer(pm, a.gateway, server.Config{
		Address:         cfg.Address,
		ShutdownTimeout: cfg.ShutdownTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
	},
		server.WithMetrics(m, metrics.HandlerFor(reg, metrics.DefaultHandlerOpts())),
		server.WithLogger(a.logger),
	)

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	if cc.Text() && !cc.Quiet {
		fmt.Fprintln(cc.ErrOut, ux.RenderSummary("secprops "+info.Short(), []ux.Field{
			{Label: "API", Value: ux.Path.Sprintf("http://%s%s", ln.Addr(), server.APIPrefix)},
			{Label: "Health", Value: ux.Path.Sprintf("http://%s/health/ready", ln.Addr())},
			{Label: "Metrics", Value: ux.Path.Sprintf("http://%s/metrics", ln.Addr())},
			{Label: "Default", Value: "Java " + a.gateway.Versions().Default},
			{Label: "History", Value: onOff(a.gateway.HistoryEnabled())},
		}))
	}

	return serveUntilDone(cmd.Context(), srv, ln, cc)
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts down
// gracefully.
func serveUntilDone(ctx context.Context, srv *server.Server, ln net.Listener, cc *CommandContext) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		fmt.Fprintln(cc.ErrOut, ux.Muted.Sprint("shutting down"))

		// The parent context is already cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fmt.Fprintln(cc.ErrOut, ux.Success.Sprint(ux.CheckMark+" server stopped"))
		return nil
	}
}

func onOff(b bool) string {
	if b {
		return ux.Success.Sprint("on")
	}
	return ux.Muted.Sprint("off")
}
