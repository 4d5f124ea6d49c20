package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/acu-erp/acu-erp/internal/jobs"
)

// SnapshotRefresher recomputes the stored stock rows of a workspace.
type SnapshotRefresher interface {
	RefreshSnapshots(ctx context.Context, workspace string) (int, error)
}

// WorkspaceLister lists every workspace with stored data.
type WorkspaceLister interface {
	Workspaces(ctx context.Context) ([]string, error)
}

// SnapshotRefreshJob rewrites stock ledger snapshots so stored derived columns
// follow the upstream modules.
type SnapshotRefreshJob struct {
	Ledger     SnapshotRefresher
	Workspaces WorkspaceLister
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewSnapshotRefreshJob wires dependencies for the refresh handler.
func NewSnapshotRefreshJob(ledger SnapshotRefresher, workspaces WorkspaceLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{Ledger: ledger, Workspaces: workspaces, Logger: logger, Metrics: metrics}
}

// Handle processes TaskStockSnapshotRefresh tasks.
func (j *SnapshotRefreshJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Ledger == nil {
		return errors.New("snapshot refresh: handler not configured")
	}
	var payload SnapshotRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskStockSnapshotRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	logger := j.logger()
	workspaces := []string{payload.Workspace}
	if payload.Workspace == "" {
		listed, err := j.Workspaces.Workspaces(ctx)
		if err != nil {
			logger.Error("list workspaces", slog.Any("error", err))
			return err
		}
		workspaces = listed
	}

	rows := 0
	for _, ws := range workspaces {
		n, err := j.Ledger.RefreshSnapshots(ctx, ws)
		if err != nil {
			logger.Error("refresh stock snapshots", slog.String("workspace", ws), slog.Any("error", err))
			return err
		}
		rows += n
	}
	tracker.AddProcessed(rows)
	logger.Info("completed stock snapshot refresh",
		slog.Int("workspaces", len(workspaces)),
		slog.Int("rows", rows),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *SnapshotRefreshJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *SnapshotRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics == nil {
		return defaultJobMetrics
	}
	return j.Metrics
}
