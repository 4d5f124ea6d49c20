package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/acu-erp/acu-erp/internal/app"
	"github.com/acu-erp/acu-erp/internal/observability"
	"github.com/acu-erp/acu-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	backends, conns, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer conns.Close(logger)

	services := app.NewServices(cfg, backends, logger, metrics)

	refreshJob := jobs.NewSnapshotRefreshJob(services.Stock, services.Store, logger, metrics.Jobs())
	refreshTask, err := jobs.NewSnapshotRefreshTask("")
	if err != nil {
		logger.Error("build snapshot refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskStockSnapshotRefresh, Handler: refreshJob.Handle},
	}
	cron := []jobs.CronRegistration{
		{Spec: cfg.SnapshotRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
	}
	if services.Backups != nil {
		backupJob := jobs.NewWorkspaceBackupJob(services.Backups, logger, metrics.Jobs())
		backupTask, err := jobs.NewWorkspaceBackupTask("")
		if err != nil {
			logger.Error("build backup task", slog.Any("error", err))
			os.Exit(1)
		}
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskWorkspaceBackup, Handler: backupJob.Handle})
		cron = append(cron, jobs.CronRegistration{Spec: cfg.BackupCron, Task: backupTask})
	} else {
		logger.Info("backups disabled, no bucket configured")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   app.RedisOpts(cfg),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
