package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/secprops/internal/cmd"
	"github.com/felixgeelhaar/secprops/internal/exitcode"
	"github.com/felixgeelhaar/secprops/internal/ux"
)

func main() {
	// Create a context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		// A cancelled engine call surfaces as a timeout; report the interrupt instead
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		fmt.Fprint(os.Stderr, ux.EnsureNewline(ux.FormatError(err)))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}
