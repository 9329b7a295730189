// Package gateway exposes the encrypt and decrypt operations offered to
// callers: single values, batches, property files, history, version
// discovery and key generation. Every engine outcome is mirrored into the
// audit log; validation failures are not.
package gateway

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/felixgeelhaar/secprops/internal/audit"
	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/keygen"
	"github.com/felixgeelhaar/secprops/internal/log"
	"github.com/felixgeelhaar/secprops/internal/metrics"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// Config configures a Gateway
type Config struct {
	// DefaultVersion is used when a request names no Java version
	DefaultVersion runtime.VersionKey

	// Batch configures the batch orchestrator
	Batch batch.Config
}

// DefaultConfig returns the default gateway configuration
func DefaultConfig() Config {
	return Config{
		DefaultVersion: runtime.DefaultVersion,
		Batch:          batch.DefaultConfig(),
	}
}

// Gateway implements the caller-facing operations
type Gateway struct {
	engine         exec.Engine
	orchestrator   *batch.Orchestrator
	audit          *audit.Log
	metrics        *metrics.Metrics
	defaultVersion runtime.VersionKey
	logger         *log.Logger
}

// New creates a gateway. auditLog and m may be nil.
func New(engine exec.Engine, auditLog *audit.Log, cfg Config, m *metrics.Metrics, logger *log.Logger) *Gateway {
	logger = log.OrDefault(logger)
	if cfg.DefaultVersion == "" {
		cfg.DefaultVersion = runtime.DefaultVersion
	}
	instrumented := instrument(engine, m)
	return &Gateway{
		engine:         instrumented,
		orchestrator:   batch.New(instrumented, cfg.Batch, logger),
		audit:          auditLog,
		metrics:        m,
		defaultVersion: cfg.DefaultVersion,
		logger:         logger.With("component", "gateway"),
	}
}

// version returns the requested version or the default
func (g *Gateway) version(requested string) runtime.VersionKey {
	if requested == "" {
		return g.defaultVersion
	}
	return runtime.VersionKey(requested)
}

// Encrypt encrypts one value
func (g *Gateway) Encrypt(ctx context.Context, req EncryptRequest) (*EncryptResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	version := g.version(req.JavaVersion)

	ciphertext, err := g.engine.Encrypt(ctx, version, req.PlainText, req.MasterPassword)
	g.record(audit.Record{
		Operation:  audit.OperationEncrypt,
		Version:    string(version),
		Success:    err == nil,
		Ciphertext: ciphertext,
		Error:      redact(errors.Message(err), req.PlainText, req.MasterPassword),
	})
	if err != nil {
		return nil, err
	}

	return &EncryptResult{
		EncryptedValue: ciphertext,
		JavaVersion:    string(version),
		Algorithm:      Algorithm,
	}, nil
}

// Decrypt decrypts one value
func (g *Gateway) Decrypt(ctx context.Context, req DecryptRequest) (*DecryptResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	version := g.version(req.JavaVersion)

	plaintext, err := g.engine.Decrypt(ctx, version, req.EncryptedValue, req.MasterPassword)
	g.record(audit.Record{
		Operation:  audit.OperationDecrypt,
		Version:    string(version),
		Success:    err == nil,
		Ciphertext: req.EncryptedValue,
		Error:      redact(errors.Message(err), req.MasterPassword),
	})
	if err != nil {
		return nil, err
	}

	return &DecryptResult{
		PlainText:   plaintext,
		JavaVersion: string(version),
	}, nil
}

// record appends to the audit log. Failures are logged and counted only.
func (g *Gateway) record(rec audit.Record) {
	if g.audit == nil || !g.audit.Enabled() {
		return
	}
	_, err := g.audit.Append(rec)
	g.metrics.ObserveAuditWrite(err)
	if err != nil {
		g.logger.WithError(err).Warn("history entry not recorded", "operation", string(rec.Operation))
	}
}

// recordItems mirrors every settled batch item into the audit log
func (g *Gateway) recordItems(op exec.Operation, version runtime.VersionKey, secret string, results []batch.ItemResult) {
	kind := audit.OperationEncrypt
	if op == exec.OpDecrypt {
		kind = audit.OperationDecrypt
	}
	for _, r := range results {
		ciphertext := r.Derived
		if op == exec.OpDecrypt {
			ciphertext = r.Original
		}
		g.record(audit.Record{
			Operation:  kind,
			Version:    string(version),
			Success:    r.Success,
			Key:        r.Key,
			Ciphertext: ciphertext,
			Error:      redact(r.Error, r.Original, secret),
		})
	}
}

// redact replaces each non-empty secret in msg with log.Redacted. Engine
// stderr may echo its arguments, and history must never hold them.
func redact(msg string, secrets ...string) string {
	if msg == "" {
		return msg
	}
	// longest first, so a secret containing another is replaced whole
	secrets = slices.Clone(secrets)
	slices.SortFunc(secrets, func(a, b string) int { return cmp.Compare(len(b), len(a)) })
	for _, s := range secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, log.Redacted)
		}
	}
	return msg
}

// Versions lists the supported Java versions and the default
func (g *Gateway) Versions() VersionsInfo {
	return VersionsInfo{
		Supported: runtime.Strings(runtime.Supported),
		Default:   string(g.defaultVersion),
	}
}

// GenerateKey creates a random key or password
func (g *Gateway) GenerateKey(req keygen.Request) (*keygen.Key, error) {
	key, err := keygen.Generate(req)
	if err != nil {
		return nil, err
	}
	if g.metrics != nil {
		g.metrics.KeysGenerated.WithLabelValues(string(key.Type)).Inc()
	}
	return &key, nil
}
