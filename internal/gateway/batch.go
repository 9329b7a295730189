package gateway

import (
	"context"

	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/exec"
)

// BatchEncrypt encrypts every item of req. Item failures are reported in
// the result; only request-level problems return an error.
func (g *Gateway) BatchEncrypt(ctx context.Context, req BatchRequest) (*batch.Report, error) {
	return g.runBatch(ctx, exec.OpEncrypt, req)
}

// BatchDecrypt decrypts every item of req
func (g *Gateway) BatchDecrypt(ctx context.Context, req BatchRequest) (*batch.Report, error) {
	return g.runBatch(ctx, exec.OpDecrypt, req)
}

func (g *Gateway) runBatch(ctx context.Context, op exec.Operation, req BatchRequest) (*batch.Report, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	version := g.version(req.JavaVersion)

	report, err := g.orchestrator.Run(ctx, batch.Request{
		Items:     req.Items,
		Secret:    req.MasterPassword,
		Version:   version,
		Operation: op,
		OnItem:    req.OnItem,
	})
	if err != nil {
		return nil, err
	}

	g.recordItems(op, version, req.MasterPassword, report.Items)
	g.metrics.ObserveBatch(op.String(), "batch", report.Succeeded, report.Failed)
	return report, nil
}
