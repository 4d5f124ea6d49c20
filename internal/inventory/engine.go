package inventory

import (
	"context"
	"log/slog"
	"strings"
)

// Recorder receives engine metrics.
type Recorder interface {
	Recomputed(rows int)
	Degraded(source string)
}

type nopRecorder struct{}

func (nopRecorder) Recomputed(int)  {}
func (nopRecorder) Degraded(string) {}

// Engine derives stock columns from the upstream repositories. It keeps no
// state between calls; every computation re-reads its sources.
type Engine struct {
	sources Sources
	drafts  DraftSource
	logger  *slog.Logger
	metrics Recorder
}

// NewEngine builds an engine. drafts, logger and metrics may be nil.
func NewEngine(sources Sources, drafts DraftSource, logger *slog.Logger, metrics Recorder) *Engine {
	if drafts == nil {
		drafts = noDrafts{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Engine{sources: sources, drafts: drafts, logger: logger, metrics: metrics}
}

// Breakdown returns the raw running totals for an item.
func (e *Engine) Breakdown(ctx context.Context, workspace, itemName, itemCode string) Breakdown {
	return e.load(ctx, workspace).breakdown(itemName, itemCode)
}

// Compute returns the draft with every derived column filled in.
func (e *Engine) Compute(ctx context.Context, workspace string, draft Draft) StockRecord {
	rows := e.computeAll(ctx, workspace, []Draft{draft})
	return rows[0]
}

// computeAll derives many rows from a single read of the sources.
func (e *Engine) computeAll(ctx context.Context, workspace string, drafts []Draft) []StockRecord {
	in := e.load(ctx, workspace)
	out := make([]StockRecord, 0, len(drafts))
	for _, d := range drafts {
		b := in.breakdown(d.ItemName, d.ItemCode)
		out = append(out, StockRecord{
			ID:       d.ID,
			ItemName: d.ItemName,
			ItemCode: d.ItemCode,
			BatchNo:  d.BatchNo,
			StockQty: d.StockQty,
			Derived:  Net(b, d.StockQty),
		})
	}
	e.metrics.Recomputed(len(out))
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
