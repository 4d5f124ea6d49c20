package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/acu-erp/acu-erp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// WorkspaceBackuper uploads remote workspace documents.
type WorkspaceBackuper interface {
	Backup(ctx context.Context, uid string) (bool, error)
	BackupAll(ctx context.Context) (int, error)
}

// WorkspaceBackupJob runs workspace backups.
type WorkspaceBackupJob struct {
	Backups WorkspaceBackuper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewWorkspaceBackupJob wires dependencies for the backup handler.
func NewWorkspaceBackupJob(backups WorkspaceBackuper, logger *slog.Logger, metrics *jobmetrics.Metrics) *WorkspaceBackupJob {
	return &WorkspaceBackupJob{Backups: backups, Logger: logger, Metrics: metrics}
}

// Handle processes TaskWorkspaceBackup tasks.
func (j *WorkspaceBackupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Backups == nil {
		return errors.New("workspace backup: handler not configured")
	}
	var payload BackupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskWorkspaceBackup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if payload.UID != "" {
		ok, err := j.Backups.Backup(ctx, payload.UID)
		if err != nil {
			logger.Error("backup workspace", slog.String("uid", payload.UID), slog.Any("error", err))
			return err
		}
		if ok {
			tracker.AddProcessed(1)
		}
		return nil
	}
	written, err := j.Backups.BackupAll(ctx)
	tracker.AddProcessed(written)
	if err != nil {
		logger.Error("backup workspaces", slog.Int("written", written), slog.Any("error", err))
		return err
	}
	logger.Info("completed workspace backup", slog.Int("written", written))
	return nil
}
