// Package batch runs one engine invocation per item and collects an
// order-stable report. A failing item never stops the others.
//
// Items run one at a time unless the orchestrator is configured with a
// concurrency above one, in which case a bounded pool is used. Each engine
// call spawns a JVM, so the pool size is the number of concurrent JVMs.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/log"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// Item is one keyed payload
type Item struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ItemResult is the settled outcome of one item
type ItemResult struct {
	Key      string `json:"key" yaml:"key"`
	Original string `json:"original" yaml:"original"`
	// Derived is empty when the item failed.
	Derived string           `json:"derived,omitempty" yaml:"derived,omitempty"`
	Success bool             `json:"success" yaml:"success"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
	Code    errors.ErrorCode `json:"code,omitempty" yaml:"code,omitempty"`
}

// Report is the aggregate result of a batch, in input order
type Report struct {
	Items     []ItemResult `json:"results" yaml:"results"`
	Total     int          `json:"total" yaml:"total"`
	Succeeded int          `json:"success" yaml:"success"`
	Failed    int          `json:"failed" yaml:"failed"`
}

// Request describes a batch
type Request struct {
	Items     []Item
	Secret    string
	Version   runtime.VersionKey
	Operation exec.Operation

	// OnItem is called once per item as soon as it settles. With a
	// concurrency above one it may be called from several goroutines.
	OnItem func(index int, result ItemResult)
}

// Config configures the orchestrator
type Config struct {
	// Concurrency is the maximum number of engine calls in flight (default: 1)
	Concurrency int
}

// DefaultConfig returns the sequential configuration
func DefaultConfig() Config {
	return Config{Concurrency: 1}
}

// Orchestrator drives an Engine over many items
type Orchestrator struct {
	engine      exec.Engine
	concurrency int
	logger      *log.Logger
}

// New creates an orchestrator
func New(engine exec.Engine, cfg Config, logger *log.Logger) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{
		engine:      engine,
		concurrency: cfg.Concurrency,
		logger:      log.OrDefault(logger).With("component", "batch"),
	}
}

// Concurrency returns the configured pool size
func (o *Orchestrator) Concurrency() int {
	return o.concurrency
}

// Run processes every item of req and returns the report. It fails only for
// request-level problems: no items, no secret or an unknown operation.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if len(req.Items) == 0 {
		return nil, errors.NewInvalidRequestError("items must be a non-empty array")
	}
	if req.Secret == "" {
		return nil, errors.NewMissingParameterError("masterPassword")
	}
	if !req.Operation.Valid() {
		return nil, errors.NewInvalidRequestError("unknown operation: " + req.Operation.String())
	}

	results := make([]ItemResult, len(req.Items))

	if o.concurrency == 1 || len(req.Items) == 1 {
		for i, item := range req.Items {
			results[i] = o.settle(ctx, req, i, item)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.concurrency)
		for i, item := range req.Items {
			g.Go(func() error {
				results[i] = o.settle(ctx, req, i, item)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &Report{Items: results, Total: len(results)}
	for _, r := range results {
		if r.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	o.logger.Debug("batch finished",
		"operation", req.Operation.String(),
		"version", string(req.Version),
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)

	return report, nil
}

// settle runs one item and notifies OnItem
func (o *Orchestrator) settle(ctx context.Context, req Request, index int, item Item) ItemResult {
	result := ItemResult{Key: item.Key, Original: item.Value}

	derived, err := exec.Apply(ctx, o.engine, req.Operation, req.Version, item.Value, req.Secret)
	if err != nil {
		result.Error = errors.Message(err)
		result.Code = errors.CodeOf(err)
	} else {
		result.Derived = derived
		result.Success = true
	}

	if req.OnItem != nil {
		req.OnItem(index, result)
	}
	return result
}
