package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/acu-erp/acu-erp/internal/jobs"
)

type fakeLedger struct {
	refreshed []string
	failOn    string
}

func (f *fakeLedger) RefreshSnapshots(_ context.Context, workspace string) (int, error) {
	if workspace == f.failOn {
		return 0, errors.New("ledger unavailable")
	}
	f.refreshed = append(f.refreshed, workspace)
	return 2, nil
}

type staticWorkspaces []string

func (s staticWorkspaces) Workspaces(context.Context) ([]string, error) {
	return s, nil
}

func TestSnapshotRefreshAllWorkspaces(t *testing.T) {
	ledger := &fakeLedger{}
	job := NewSnapshotRefreshJob(ledger, staticWorkspaces{"u1", "u2"}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewSnapshotRefreshTask("")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"u1", "u2"}, ledger.refreshed)
}

func TestSnapshotRefreshSingleWorkspace(t *testing.T) {
	ledger := &fakeLedger{failOn: "u2"}
	job := NewSnapshotRefreshJob(ledger, staticWorkspaces{"u1", "u2"}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewSnapshotRefreshTask("u1")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"u1"}, ledger.refreshed)

	task, err = NewSnapshotRefreshTask("u2")
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

func TestSnapshotRefreshSkipsBadPayload(t *testing.T) {
	job := NewSnapshotRefreshJob(&fakeLedger{}, staticWorkspaces{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskStockSnapshotRefresh, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeBackups struct {
	single []string
	all    int
}

func (f *fakeBackups) Backup(_ context.Context, uid string) (bool, error) {
	f.single = append(f.single, uid)
	return true, nil
}

func (f *fakeBackups) BackupAll(context.Context) (int, error) {
	f.all++
	return 3, nil
}

func TestWorkspaceBackupJob(t *testing.T) {
	backups := &fakeBackups{}
	job := NewWorkspaceBackupJob(backups, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewWorkspaceBackupTask("u1")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"u1"}, backups.single)

	task, err = NewWorkspaceBackupTask("")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, backups.all)
}

type fakeEnqueuer struct {
	err error
}

func (f fakeEnqueuer) EnqueueSnapshotRefresh(_ context.Context, ws string) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "t-" + ws, Type: TaskStockSnapshotRefresh}, nil
}

func (f fakeEnqueuer) EnqueueBackup(_ context.Context, ws string) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "b-" + ws, Type: TaskWorkspaceBackup}, nil
}

func fixedWorkspace(context.Context) (string, bool) {
	return "u1", true
}

func TestHandlerEnqueues(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, fakeEnqueuer{}, fixedWorkspace, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/backup", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	var body enqueued
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, enqueued{ID: "b-u1", Type: TaskWorkspaceBackup}, body)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}

func TestHandlerDuplicateAndUnconfigured(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, fakeEnqueuer{err: asynq.ErrDuplicateTask}, fixedWorkspace, nil).MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/snapshot-refresh", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	r = chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, nil, fixedWorkspace, nil).MountRoutes)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/snapshot-refresh", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
