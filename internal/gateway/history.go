package gateway

import (
	"github.com/felixgeelhaar/secprops/internal/audit"
	"github.com/felixgeelhaar/secprops/internal/errors"
)

// History returns up to limit entries, most recent first. A limit below one
// uses the default page size. It fails with AUDIT-002 when history is off.
func (g *Gateway) History(limit int) (*HistoryPage, error) {
	if g.audit == nil {
		return nil, errors.NewAuditDisabledError()
	}
	if limit < 1 {
		limit = audit.DefaultListLimit
	}
	entries, err := g.audit.List(limit)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{History: entries, Count: len(entries)}, nil
}

// ClearHistory removes every entry. It fails with AUDIT-002 when history is off.
func (g *Gateway) ClearHistory() error {
	if g.audit == nil {
		return errors.NewAuditDisabledError()
	}
	return g.audit.Clear()
}

// HistoryEnabled reports whether operations are being recorded
func (g *Gateway) HistoryEnabled() bool {
	return g.audit != nil && g.audit.Enabled()
}
