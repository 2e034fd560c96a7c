package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Handlers  []TaskHandler
	Cron      []CronRegistration
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueAverageCost enqueues an average cost recalculation for month, or
// for the previous month when month is nil.
func (c *Client) EnqueueAverageCost(ctx context.Context, month *shared.Month) (*asynq.TaskInfo, error) {
	task, err := NewAverageCostTask(month)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// EnqueueStockAudit enqueues a stock audit run.
func (c *Client) EnqueueStockAudit(ctx context.Context) (*asynq.TaskInfo, error) {
	task, err := NewStockAuditTask()
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector *asynq.Inspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector *asynq.Inspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

// QueueHealth summarises the default queue.
type QueueHealth struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	health := QueueHealth{Queue: QueueDefault}
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, health)
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("jobs health", slog.Any("error", err))
		}
		httpx.JSON(w, http.StatusServiceUnavailable, httpx.ErrorBody{Error: "queue unavailable"})
		return
	}
	if info != nil {
		health.Queue = info.Queue
		health.Pending = info.Pending
		health.Active = info.Active
		health.Scheduled = info.Scheduled
		health.Retry = info.Retry
	}
	httpx.JSON(w, http.StatusOK, health)
}

// DefaultCron returns the recurring schedule of the nutrition jobs.
func DefaultCron() []CronRegistration {
	// Scheduled payloads carry no run id; each run mints its own.
	avg := asynq.NewTask(TaskAverageCost, []byte(`{}`), asynq.Queue(QueueDefault))
	audit := asynq.NewTask(TaskStockAudit, []byte(`{}`), asynq.Queue(QueueDefault))
	return []CronRegistration{
		{Spec: CronAverageCost, Task: avg, Options: []asynq.Option{asynq.MaxRetry(3)}},
		{Spec: CronStockAudit, Task: audit, Options: []asynq.Option{asynq.MaxRetry(1)}},
	}
}
