package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nutri-erp/nutri-erp/internal/app"
	"github.com/nutri-erp/nutri-erp/internal/closing"
	jobmetrics "github.com/nutri-erp/nutri-erp/internal/jobs"
	"github.com/nutri-erp/nutri-erp/internal/monthly"
	"github.com/nutri-erp/nutri-erp/internal/platform/cache"
	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	"github.com/nutri-erp/nutri-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	closingService := closing.NewService(
		closing.NewRepository(pool),
		auditLogger,
		cache.NewLocker(redisClient, cfg.ClosingLockTTL, logger),
		cache.NewVersioned(redisClient, "reports", cfg.ReportCacheTTL),
	)
	monthlyService := monthly.NewService(monthly.NewRepository(pool), auditLogger)

	averageCostJob := jobs.NewAverageCostJob(closingService, logger, metrics)
	stockAuditJob := jobs.NewStockAuditJob(monthlyService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAverageCost, Handler: averageCostJob.Handle},
			{Type: jobs.TaskStockAudit, Handler: stockAuditJob.Handle},
		},
		Cron: jobs.DefaultCron(),
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
