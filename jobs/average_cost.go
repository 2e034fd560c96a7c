package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nutri-erp/nutri-erp/internal/closing"
	jobmetrics "github.com/nutri-erp/nutri-erp/internal/jobs"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// AverageCostService recomputes average cost rows from deliveries.
type AverageCostService interface {
	RecalculateMonth(ctx context.Context, month shared.Month) ([]closing.AverageCost, error)
}

// AverageCostJob coordinates the monthly average cost recalculation.
type AverageCostJob struct {
	Service AverageCostService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAverageCostJob constructs the job handler.
func NewAverageCostJob(service AverageCostService, logger *slog.Logger, metrics *jobmetrics.Metrics) *AverageCostJob {
	return &AverageCostJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the average cost job.
func (j *AverageCostJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("average cost: dependencies not configured")
	}
	var payload AverageCostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RunID == "" {
		payload.RunID = uuid.NewString()
	}
	month := shared.MonthOf(j.now()).Previous()
	if payload.Month != "" {
		parsed, err := shared.ParseMonth(payload.Month)
		if err != nil {
			j.log().Error("invalid month", slog.String("month", payload.Month), slog.Any("error", err))
			return asynq.SkipRetry
		}
		month = parsed
	}

	tracker := j.metrics().Track(TaskAverageCost)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	rows, err := j.Service.RecalculateMonth(ctx, month)
	if err != nil {
		resultErr = err
		j.log().Error("recalculate month", slog.String("month", month.String()), slog.String("run_id", payload.RunID), slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddAverageCosts(month.String(), len(rows))
	j.log().Info("recalculated average costs",
		slog.String("month", month.String()),
		slog.String("run_id", payload.RunID),
		slog.Int("inputs", len(rows)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *AverageCostJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AverageCostJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAverageCost))
	}
	return slog.Default().With(slog.String("job", TaskAverageCost))
}

func (j *AverageCostJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *AverageCostJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
