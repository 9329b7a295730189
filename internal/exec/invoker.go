package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"time"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/log"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed.
const waitDelay = 2 * time.Second

// Invoker runs external processes with a hard timeout. No process started by
// Run outlives the call.
type Invoker struct {
	timeout time.Duration
	logger  *log.Logger
}

// NewInvoker creates an invoker. A non-positive timeout uses DefaultTimeout.
func NewInvoker(cfg Config, logger *log.Logger) *Invoker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Invoker{
		timeout: cfg.Timeout,
		logger:  log.OrDefault(logger),
	}
}

// Timeout returns the configured process timeout
func (i *Invoker) Timeout() time.Duration {
	return i.timeout
}

// Run launches name with args in the current directory. See RunIn.
func (i *Invoker) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	return i.RunIn(ctx, "", name, args...)
}

// RunIn launches name with args in dir and waits for it to exit. On timeout
// or cancellation the whole process group is killed and buffered output is
// discarded. A non-zero exit is reported through Result.ExitCode, not as an
// error.
func (i *Invoker) RunIn(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	startTime := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	// Set process group so we can kill the entire process tree on timeout
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.NewEngineLaunchError(name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-runCtx.Done():
		killProcessGroup(cmd)
		<-done

		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeEngineTimeout, "JAR execution cancelled", ctx.Err())
		}
		i.logger.Warn("engine process killed after timeout",
			"executable", name,
			"timeout", i.timeout.String(),
		)
		return nil, errors.NewEngineTimeoutError(i.timeout)
	case err = <-done:
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			// Command started but could not be waited on
			return nil, errors.NewEngineLaunchError(name, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}, nil
}
