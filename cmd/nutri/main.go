package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nutri-erp/nutri-erp/cmd/nutri/cli"
	"github.com/nutri-erp/nutri-erp/internal/app"
	"github.com/nutri-erp/nutri-erp/internal/audit"
	audithttp "github.com/nutri-erp/nutri-erp/internal/audit/http"
	"github.com/nutri-erp/nutri-erp/internal/auth"
	"github.com/nutri-erp/nutri-erp/internal/closing"
	"github.com/nutri-erp/nutri-erp/internal/invoices"
	"github.com/nutri-erp/nutri-erp/internal/masterdata"
	"github.com/nutri-erp/nutri-erp/internal/monthly"
	"github.com/nutri-erp/nutri-erp/internal/observability"
	"github.com/nutri-erp/nutri-erp/internal/platform/cache"
	"github.com/nutri-erp/nutri-erp/internal/platform/db"
	"github.com/nutri-erp/nutri-erp/internal/procurement"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	"github.com/nutri-erp/nutri-erp/internal/users"
	"github.com/nutri-erp/nutri-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "jobs" {
		os.Exit(cli.RunJobs(ctx, cfg.RedisAddr, args[1:], os.Stdout))
	}
	if len(args) > 0 && args[0] != "serve" {
		cli.Usage(os.Stderr)
		os.Exit(2)
	}

	logger := app.NewLogger(cfg)
	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer dbpool.Close()
	if err := db.Migrate(ctx, dbpool, logger); err != nil {
		return err
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "nutri_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	rbacMiddleware := rbac.Middleware{Service: rbac.NewService(rbac.NewRepository(dbpool)), Logger: logger}

	usersService := users.NewService(users.NewRepository(dbpool), auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)
	authService := auth.NewService(auth.NewRepository(dbpool), usersService)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, rbacMiddleware)

	masterDataHandler, _ := masterdata.New(logger, dbpool, auditLogger)

	invoicesHandler := invoices.NewHandler(logger, invoices.NewService(invoices.NewRepository(dbpool), auditLogger))
	procurementHandler := procurement.NewHandler(logger, procurement.NewService(procurement.NewRepository(dbpool), auditLogger))
	monthlyHandler := monthly.NewHandler(logger, monthly.NewService(monthly.NewRepository(dbpool), auditLogger))

	closingService := closing.NewService(
		closing.NewRepository(dbpool),
		auditLogger,
		cache.NewLocker(redisClient, cfg.ClosingLockTTL, logger),
		cache.NewVersioned(redisClient, "reports", cfg.ReportCacheTTL),
	)
	closingHandler := closing.NewHandler(logger, closingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		MasterDataHandler:  masterDataHandler,
		InvoicesHandler:    invoicesHandler,
		ProcurementHandler: procurementHandler,
		MonthlyHandler:     monthlyHandler,
		ClosingHandler:     closingHandler,
		AuditHandler:       audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
