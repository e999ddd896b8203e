package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/audit"
)

// Relay периодически забирает задачи и публикует их. После maxAttempts
// неудач задача остаётся в таблице со статусом NO_ATTEMPTS_LEFT.
type Relay struct {
	repo         TaskRepository
	publisher    audit.Publisher
	topic        string
	log          *slog.Logger
	now          func() time.Time
	pollInterval time.Duration
	limit        int
	maxAttempts  int
	retryDelay   time.Duration
}

type RelayOption func(*Relay)

func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) { r.now = now }
}

func WithRetry(maxAttempts int, delay time.Duration) RelayOption {
	return func(r *Relay) {
		r.maxAttempts = maxAttempts
		r.retryDelay = delay
	}
}

func NewRelay(repo TaskRepository, pub audit.Publisher, topic string, log *slog.Logger, pollInterval time.Duration, limit int, opts ...RelayOption) *Relay {
	r := &Relay{
		repo:         repo,
		publisher:    pub,
		topic:        topic,
		log:          log,
		now:          time.Now,
		pollInterval: pollInterval,
		limit:        limit,
		maxAttempts:  3,
		retryDelay:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start крутится до отмены ctx
func (r *Relay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ProcessPending(ctx)
			ticker.Reset(r.pollInterval)
		}
	}
}

// ProcessPending - один проход по очереди, возвращает число отправленных задач
func (r *Relay) ProcessPending(ctx context.Context) int {
	tasks, err := r.repo.GetPendingTasks(ctx, r.limit, r.maxAttempts, r.now())
	if err != nil {
		r.log.Error("fetch pending tasks", "err", err)
		return 0
	}
	sent := 0
	for _, task := range tasks {
		if err := r.repo.MarkTaskProcessing(ctx, task.ID, r.now()); err != nil {
			r.log.Error("mark task processing", "task", task.ID, "err", err)
			continue
		}

		if err := audit.Publish(r.publisher, r.topic, task.EntityKey(), task.AuditData); err != nil {
			r.fail(ctx, task, err)
			continue
		}
		sent++
		r.log.Debug("task published", "task", task.ID, "topic", r.topic)
		if err := r.repo.DeleteTask(ctx, task.ID); err != nil {
			r.log.Error("delete task after publish", "task", task.ID, "err", err)
		}
	}
	return sent
}

func (r *Relay) fail(ctx context.Context, task *Task, err error) {
	attempt := task.AttemptCount + 1
	status := TaskStatusFailed
	if attempt >= r.maxAttempts {
		status = TaskStatusNoAttemptsLeft
	}
	now := r.now()
	if errUpd := r.repo.UpdateTaskFailure(ctx, task.ID, attempt, status, now.Add(r.retryDelay), now); errUpd != nil {
		r.log.Error("update task on failure", "task", task.ID, "err", errUpd)
	}
	r.log.Warn("publish task failed", "task", task.ID, "attempt", attempt, "status", status, "err", err)
}

// Processor - обработчик пула журнала, который вместо прямой публикации
// кладёт записи в очередь задач
type Processor struct {
	Repo TaskRepository
	Now  func() time.Time
}

func (p *Processor) Process(ctx context.Context, batch []audit.Record) error {
	payloads := make([][]byte, 0, len(batch))
	for _, rec := range batch {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record: %w", err)
		}
		payloads = append(payloads, data)
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if err := p.Repo.CreateTasks(ctx, payloads, now()); err != nil {
		return fmt.Errorf("enqueue audit records: %w", err)
	}
	return nil
}
