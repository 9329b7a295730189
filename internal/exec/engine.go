package exec

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/log"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// Engine encrypts and decrypts single values. Implementations must be safe
// for concurrent use.
type Engine interface {
	Encrypt(ctx context.Context, version runtime.VersionKey, plaintext, secret string) (string, error)
	Decrypt(ctx context.Context, version runtime.VersionKey, ciphertext, secret string) (string, error)
}

// Apply dispatches op to the matching Engine method
func Apply(ctx context.Context, e Engine, op Operation, version runtime.VersionKey, payload, secret string) (string, error) {
	switch op {
	case OpEncrypt:
		return e.Encrypt(ctx, version, payload, secret)
	case OpDecrypt:
		return e.Decrypt(ctx, version, payload, secret)
	default:
		return "", errors.NewInvalidRequestError(fmt.Sprintf("unknown operation: %q", op))
	}
}

// JarEngine runs the MuleSoft secure properties JAR as
// <java> -jar <artifact> <operation> <payload> <secret>.
type JarEngine struct {
	registry *runtime.Registry
	invoker  *Invoker
	logger   *log.Logger
}

// NewJarEngine creates an engine backed by the external JAR
func NewJarEngine(registry *runtime.Registry, invoker *Invoker, logger *log.Logger) *JarEngine {
	return &JarEngine{
		registry: registry,
		invoker:  invoker,
		logger:   log.OrDefault(logger),
	}
}

// Encrypt implements Engine
func (e *JarEngine) Encrypt(ctx context.Context, version runtime.VersionKey, plaintext, secret string) (string, error) {
	return e.Invoke(ctx, Request{Version: version, Operation: OpEncrypt, Payload: plaintext, Secret: secret})
}

// Decrypt implements Engine
func (e *JarEngine) Decrypt(ctx context.Context, version runtime.VersionKey, ciphertext, secret string) (string, error) {
	return e.Invoke(ctx, Request{Version: version, Operation: OpDecrypt, Payload: ciphertext, Secret: secret})
}

// Invoke resolves the runtime for req.Version, runs one engine process and
// returns its trimmed output. A zero exit with empty output is a failure.
func (e *JarEngine) Invoke(ctx context.Context, req Request) (string, error) {
	if !req.Operation.Valid() {
		return "", errors.NewInvalidRequestError(fmt.Sprintf("unknown operation: %q", req.Operation))
	}

	resolved, err := e.registry.Resolve(req.Version)
	if err != nil {
		return "", err
	}

	args := []string{"-jar", resolved.Artifact, req.Operation.String(), req.Payload, req.Secret}

	res, err := e.invoker.RunIn(ctx, filepath.Dir(resolved.Artifact), resolved.Executable, args...)
	if err != nil {
		e.logger.WithError(err).Debug("engine invocation failed",
			"version", string(req.Version),
			"operation", req.Operation.String(),
		)
		return "", err
	}

	if res.ExitCode != 0 {
		e.logger.Debug("engine exited with error",
			"version", string(req.Version),
			"operation", req.Operation.String(),
			"exit_code", res.ExitCode,
			"duration", res.Duration.String(),
		)
		return "", errors.NewEngineExecutionError(res.Stderr)
	}

	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return "", errors.NewEngineNoOutputError()
	}

	attrs := []any{
		"version", string(req.Version),
		"operation", req.Operation.String(),
		"duration", res.Duration.String(),
	}
	if req.Operation == OpEncrypt {
		attrs = append(attrs, "ciphertext", log.Preview(out))
	}
	e.logger.Debug("engine invocation succeeded", attrs...)

	return out, nil
}
