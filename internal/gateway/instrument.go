package gateway

import (
	"context"
	"time"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/metrics"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// instrumentedEngine records every engine call in metrics
type instrumentedEngine struct {
	next    exec.Engine
	metrics *metrics.Metrics
}

func instrument(next exec.Engine, m *metrics.Metrics) exec.Engine {
	if m == nil {
		return next
	}
	return &instrumentedEngine{next: next, metrics: m}
}

func (e *instrumentedEngine) Encrypt(ctx context.Context, version runtime.VersionKey, plaintext, secret string) (string, error) {
	start := time.Now()
	out, err := e.next.Encrypt(ctx, version, plaintext, secret)
	e.metrics.ObserveInvocation(string(exec.OpEncrypt), string(version), time.Since(start), string(errors.CodeOf(err)))
	return out, err
}

func (e *instrumentedEngine) Decrypt(ctx context.Context, version runtime.VersionKey, ciphertext, secret string) (string, error) {
	start := time.Now()
	out, err := e.next.Decrypt(ctx, version, ciphertext, secret)
	e.metrics.ObserveInvocation(string(exec.OpDecrypt), string(version), time.Since(start), string(errors.CodeOf(err)))
	return out, err
}
