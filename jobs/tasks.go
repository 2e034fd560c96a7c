package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/nutri-erp/nutri-erp/internal/jobs"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAverageCost recomputes the average cost rows of a month.
	TaskAverageCost = "closing:average_cost"
	// TaskStockAudit compares input stock with the latest registries.
	TaskStockAudit = "monthly:stock_audit"
)

// Cron specs, evaluated in UTC.
const (
	CronAverageCost = "0 3 1 * *"
	CronStockAudit  = "30 2 * * *"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AverageCostPayload selects the month to recompute. An empty month means
// the month before the run.
type AverageCostPayload struct {
	Month string `json:"month,omitempty"`
	RunID string `json:"run_id"`
}

// StockAuditPayload carries the correlation id of an audit run.
type StockAuditPayload struct {
	RunID string `json:"run_id"`
}

// NewAverageCostTask creates a task for the given month, or the previous
// month when month is nil.
func NewAverageCostTask(month *shared.Month) (*asynq.Task, error) {
	payload := AverageCostPayload{RunID: uuid.NewString()}
	if month != nil {
		payload.Month = month.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAverageCost, body, asynq.Queue(QueueDefault)), nil
}

// NewStockAuditTask creates a stock audit task.
func NewStockAuditTask() (*asynq.Task, error) {
	body, err := json.Marshal(StockAuditPayload{RunID: uuid.NewString()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAudit, body, asynq.Queue(QueueDefault)), nil
}
