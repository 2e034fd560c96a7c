package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/nutri-erp/nutri-erp/internal/jobs"
	"github.com/nutri-erp/nutri-erp/internal/monthly"
)

// StockAuditService reports inputs whose stock drifted from their ledger.
type StockAuditService interface {
	StockDrifts(ctx context.Context) ([]monthly.StockDrift, error)
}

// StockAuditJob logs stock drift. It never corrects stock.
type StockAuditJob struct {
	Service StockAuditService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStockAuditJob constructs the job handler.
func NewStockAuditJob(service StockAuditService, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockAuditJob {
	return &StockAuditJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes the stock audit.
func (j *StockAuditJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("stock audit: dependencies not configured")
	}
	var payload StockAuditPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RunID == "" {
		payload.RunID = uuid.NewString()
	}

	tracker := j.metrics().Track(TaskStockAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	drifts, err := j.Service.StockDrifts(ctx)
	if err != nil {
		resultErr = err
		j.log().Error("load stock drifts", slog.String("run_id", payload.RunID), slog.Any("error", err))
		return resultErr
	}
	j.metrics().SetStockDrifts(len(drifts))
	for _, d := range drifts {
		j.log().Warn("stock drift",
			slog.String("run_id", payload.RunID),
			slog.Int64("input_id", d.InputID),
			slog.String("reference_month", d.ReferenceMonth.String()),
			slog.String("current_stock", d.CurrentStock.String()),
			slog.String("closing_stock", d.ClosingStock.String()),
			slog.String("difference", d.Difference.String()))
	}
	j.log().Info("stock audit finished", slog.String("run_id", payload.RunID), slog.Int("drifts", len(drifts)))
	return resultErr
}

func (j *StockAuditJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StockAuditJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockAudit))
	}
	return slog.Default().With(slog.String("job", TaskStockAudit))
}
