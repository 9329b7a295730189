package exec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/exec/exectest"
	"github.com/felixgeelhaar/secprops/internal/log"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	exectest.SkipUnlessPOSIX(t)
	path := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestNewInvokerDefaultTimeout(t *testing.T) {
	inv := NewInvoker(Config{}, log.Discard())
	assert.Equal(t, DefaultTimeout, inv.Timeout())

	inv = NewInvoker(Config{Timeout: time.Second}, nil)
	assert.Equal(t, time.Second, inv.Timeout())
}

func TestRunCapturesOutput(t *testing.T) {
	script := writeScript(t, `echo "out $1"; echo "err" >&2; exit 0`)
	inv := NewInvoker(DefaultConfig(), log.Discard())

	res, err := inv.Run(context.Background(), script, "value")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out value\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunReportsExitCode(t *testing.T) {
	script := writeScript(t, `echo "boom" >&2; exit 7`)
	inv := NewInvoker(DefaultConfig(), log.Discard())

	res, err := inv.Run(context.Background(), script)
	require.NoError(t, err, "non-zero exit is not an invoker error")
	assert.Equal(t, 7, res.ExitCode)
	assert.Equal(t, "boom\n", res.Stderr)
}

func TestRunLaunchFailure(t *testing.T) {
	inv := NewInvoker(DefaultConfig(), log.Discard())

	_, err := inv.Run(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeEngineLaunchFailed))
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	script := writeScript(t, `echo "partial"; sleep 30; echo "never"`)
	timeout := 200 * time.Millisecond
	inv := NewInvoker(Config{Timeout: timeout}, log.Discard())

	start := time.Now()
	res, err := inv.Run(context.Background(), script)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, res, "buffered output is discarded on timeout")
	assert.True(t, errors.HasCode(err, errors.ErrCodeEngineTimeout))
	assert.Less(t, elapsed, timeout+5*time.Second)
}

func TestRunCancelledByCaller(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	inv := NewInvoker(Config{Timeout: time.Minute}, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := inv.Run(ctx, script)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeEngineTimeout))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInWorkingDirectory(t *testing.T) {
	script := writeScript(t, `pwd`)
	dir := t.TempDir()
	inv := NewInvoker(DefaultConfig(), log.Discard())

	res, err := inv.RunIn(context.Background(), dir, script)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(res.Stdout))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
