package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/closing"
	jobmetrics "github.com/nutri-erp/nutri-erp/internal/jobs"
	"github.com/nutri-erp/nutri-erp/internal/monthly"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

type stubCosts struct {
	months []shared.Month
	err    error
}

func (s *stubCosts) RecalculateMonth(_ context.Context, month shared.Month) ([]closing.AverageCost, error) {
	s.months = append(s.months, month)
	if s.err != nil {
		return nil, s.err
	}
	return []closing.AverageCost{{InputID: 1, ReferenceMonth: month}}, nil
}

type stubDrifts struct {
	drifts []monthly.StockDrift
}

func (s stubDrifts) StockDrifts(context.Context) ([]monthly.StockDrift, error) {
	return s.drifts, nil
}

func TestAverageCostDefaultsToPreviousMonth(t *testing.T) {
	costs := &stubCosts{}
	job := NewAverageCostJob(costs, slog.Default(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.WithClock(func() time.Time { return time.Date(2026, time.January, 1, 3, 0, 0, 0, time.UTC) })

	task, err := NewAverageCostTask(nil)
	require.NoError(t, err)
	require.Equal(t, TaskAverageCost, task.Type())
	require.NoError(t, job.Handle(context.Background(), task))

	month, err := shared.ParseMonth("2025-07")
	require.NoError(t, err)
	task, err = NewAverageCostTask(&month)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, costs.months, 2)
	require.Equal(t, "2025-12", costs.months[0].String())
	require.Equal(t, "2025-07", costs.months[1].String())
}

func TestAverageCostRejectsBadPayloads(t *testing.T) {
	job := NewAverageCostJob(&stubCosts{}, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskAverageCost, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskAverageCost, []byte(`{"month":"July"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAverageCostPropagatesFailures(t *testing.T) {
	boom := errors.New("db down")
	job := NewAverageCostJob(&stubCosts{err: boom}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), asynq.NewTask(TaskAverageCost, []byte(`{}`)))
	require.ErrorIs(t, err, boom)
}

func TestStockAuditLogsDrift(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	month, err := shared.ParseMonth("2026-03")
	require.NoError(t, err)
	job := NewStockAuditJob(stubDrifts{drifts: []monthly.StockDrift{{
		InputID:        4,
		ReferenceMonth: month,
		CurrentStock:   decimal.NewFromInt(90),
		ClosingStock:   decimal.NewFromInt(100),
		Difference:     decimal.NewFromInt(-10),
	}}}, logger, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewStockAuditTask()
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Contains(t, buf.String(), `"msg":"stock drift"`)
	require.Contains(t, buf.String(), `"difference":"-10"`)
	require.Contains(t, buf.String(), `"reference_month":"2026-03"`)
}

func TestDefaultCron(t *testing.T) {
	entries := DefaultCron()
	require.Len(t, entries, 2)
	require.Equal(t, CronAverageCost, entries[0].Spec)
	require.Equal(t, TaskAverageCost, entries[0].Task.Type())
	require.Equal(t, CronStockAudit, entries[1].Spec)
	require.Equal(t, TaskStockAudit, entries[1].Task.Type())
}

func TestHealthWithoutInspector(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(nil, nil).health(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body QueueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, QueueDefault, body.Queue)
}
