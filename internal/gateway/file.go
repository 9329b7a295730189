package gateway

import (
	"context"

	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/props"
)

// EncryptFile encrypts every entry of a property file. Entries that fail
// keep their original value.
func (g *Gateway) EncryptFile(ctx context.Context, req FileRequest) (*FileResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	doc := props.ParseDetailed(req.Content)
	g.logSkipped(doc)
	if len(doc.Entries) == 0 {
		return nil, errors.NewInvalidRequestError("no valid properties found in file")
	}

	positions := make([]int, len(doc.Entries))
	for i := range positions {
		positions[i] = i
	}
	return g.runFile(ctx, exec.OpEncrypt, req, doc, positions)
}

// DecryptFile decrypts the entries of a property file that carry the
// ciphertext marker. Other entries pass through unchanged. Entries are
// matched by position, so repeated keys decrypt independently.
func (g *Gateway) DecryptFile(ctx context.Context, req FileRequest) (*FileResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	doc := props.ParseDetailed(req.Content)
	g.logSkipped(doc)
	positions := props.Encrypted(doc.Entries)
	if len(positions) == 0 {
		return nil, errors.NewInvalidRequestError("no encrypted properties found in file")
	}
	return g.runFile(ctx, exec.OpDecrypt, req, doc, positions)
}

// runFile transforms the entries at positions and renders the result
func (g *Gateway) runFile(ctx context.Context, op exec.Operation, req FileRequest, doc props.Document, positions []int) (*FileResult, error) {
	version := g.version(req.JavaVersion)

	items := make([]batch.Item, len(positions))
	for i, pos := range positions {
		items[i] = batch.Item{Key: doc.Entries[pos].Key, Value: doc.Entries[pos].Value}
	}

	report, err := g.orchestrator.Run(ctx, batch.Request{
		Items:     items,
		Secret:    req.MasterPassword,
		Version:   version,
		Operation: op,
		OnItem:    req.OnItem,
	})
	if err != nil {
		return nil, err
	}
	g.recordItems(op, version, req.MasterPassword, report.Items)
	g.metrics.ObserveBatch(op.String(), "file", report.Succeeded, report.Failed)

	entries := make([]props.Entry, len(doc.Entries))
	copy(entries, doc.Entries)

	result := &FileResult{
		OriginalCount:  len(doc.Entries),
		TargetCount:    len(positions),
		SucceededCount: report.Succeeded,
		FailedCount:    report.Failed,
		Errors:         []KeyError{},
		Skipped:        doc.Skipped,
	}
	for i, r := range report.Items {
		if r.Success {
			entries[positions[i]].Value = r.Derived
			continue
		}
		result.Errors = append(result.Errors, KeyError{Key: r.Key, Error: r.Error})
	}
	result.Entries = entries
	result.Content = props.Format(entries)

	return result, nil
}

func (g *Gateway) logSkipped(doc props.Document) {
	if len(doc.Skipped) == 0 {
		return
	}
	lines := make([]int, len(doc.Skipped))
	for i, s := range doc.Skipped {
		lines[i] = s.Line
	}
	g.logger.Debug("property lines skipped",
		"code", string(errors.ErrCodeCodecParseSkipped),
		"lines", lines,
	)
}
