package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockSnapshotRefresh recomputes and stores the stock ledger snapshots.
	TaskStockSnapshotRefresh = "stock:snapshot-refresh"
	// TaskWorkspaceBackup copies remote workspace documents to object storage.
	TaskWorkspaceBackup = "backup:workspace"
)

// SnapshotRefreshPayload selects the workspace to refresh. An empty workspace
// refreshes all of them.
type SnapshotRefreshPayload struct {
	Workspace string `json:"workspace,omitempty"`
}

// NewSnapshotRefreshTask constructs an Asynq task for a snapshot refresh.
func NewSnapshotRefreshTask(workspace string) (*asynq.Task, error) {
	body, err := json.Marshal(SnapshotRefreshPayload{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockSnapshotRefresh, body, asynq.Queue(QueueDefault)), nil
}

// BackupPayload selects the user to back up. An empty uid backs up everyone.
type BackupPayload struct {
	UID string `json:"uid,omitempty"`
}

// NewWorkspaceBackupTask constructs an Asynq task for a workspace backup.
func NewWorkspaceBackupTask(uid string) (*asynq.Task, error) {
	body, err := json.Marshal(BackupPayload{UID: uid})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkspaceBackup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
