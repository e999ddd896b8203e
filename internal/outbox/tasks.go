// Package outbox - очередь публикации журнала изменений поверх SQL.
// Записи сначала сохраняются в tasks, потом Relay отправляет их в брокер
// с повторами.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/db"
)

type TaskStatus string

const (
	TaskStatusCreated        TaskStatus = "CREATED"
	TaskStatusProcessing     TaskStatus = "PROCESSING"
	TaskStatusFailed         TaskStatus = "FAILED"
	TaskStatusNoAttemptsLeft TaskStatus = "NO_ATTEMPTS_LEFT"
)

type Task struct {
	ID            int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinishedAt    sql.NullTime
	AuditData     []byte
	Status        TaskStatus
	AttemptCount  int
	NextAttemptAt sql.NullTime
}

// EntityKey - ID сущности из записи журнала, ключ сообщения в брокере
func (t *Task) EntityKey() string {
	var rec struct {
		EntityID string `json:"entityId"`
	}
	if err := json.Unmarshal(t.AuditData, &rec); err != nil {
		return ""
	}
	return rec.EntityID
}

type TaskRepository interface {
	CreateTasks(ctx context.Context, payloads [][]byte, now time.Time) error
	GetPendingTasks(ctx context.Context, limit, maxAttempts int, now time.Time) ([]*Task, error)
	MarkTaskProcessing(ctx context.Context, taskID int64, now time.Time) error
	DeleteTask(ctx context.Context, taskID int64) error
	UpdateTaskFailure(ctx context.Context, taskID int64, attemptCount int, newStatus TaskStatus, nextAttemptAt, now time.Time) error
}

// SQLTaskRepository работает и с postgres, и с sqlite: время передаётся
// параметром, а не через NOW()
type SQLTaskRepository struct {
	db     *sql.DB
	driver string
}

func NewSQLTaskRepository(conn *sql.DB, driver string) *SQLTaskRepository {
	return &SQLTaskRepository{db: conn, driver: driver}
}

func (r *SQLTaskRepository) query(q string) string {
	return db.Rebind(r.driver, q)
}

// CreateTasks кладёт пачку в одной транзакции: либо все, либо ничего
func (r *SQLTaskRepository) CreateTasks(ctx context.Context, payloads [][]byte, now time.Time) (err error) {
	if len(payloads) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, r.query(`
		INSERT INTO tasks (created_at, updated_at, audit_data, status, attempt_count)
		VALUES ($1, $2, $3, $4, 0)
	`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now = now.UTC()
	for _, p := range payloads {
		if _, err = stmt.ExecContext(ctx, now, now, p, TaskStatusCreated); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLTaskRepository) GetPendingTasks(ctx context.Context, limit, maxAttempts int, now time.Time) ([]*Task, error) {
	query := r.query(`
		SELECT id, created_at, updated_at, finished_at, audit_data, status, attempt_count, next_attempt_at
		FROM tasks
		WHERE status IN ($1, $2)
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $3)
		  AND attempt_count < $4
		ORDER BY id
		LIMIT $5
	`)
	rows, err := r.db.QueryContext(ctx, query, TaskStatusCreated, TaskStatusFailed, now.UTC(), maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t := &Task{}
		if err := rows.Scan(&t.ID, &t.CreatedAt,
			&t.UpdatedAt, &t.FinishedAt,
			&t.AuditData, &t.Status,
			&t.AttemptCount, &t.NextAttemptAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *SQLTaskRepository) MarkTaskProcessing(ctx context.Context, taskID int64, now time.Time) error {
	query := r.query(`
		UPDATE tasks SET status = $1, updated_at = $2
		WHERE id = $3
	`)
	_, err := r.db.ExecContext(ctx, query, TaskStatusProcessing, now.UTC(), taskID)
	return err
}

func (r *SQLTaskRepository) DeleteTask(ctx context.Context, taskID int64) error {
	_, err := r.db.ExecContext(ctx, r.query(`DELETE FROM tasks WHERE id = $1`), taskID)
	return err
}

func (r *SQLTaskRepository) UpdateTaskFailure(ctx context.Context, taskID int64, attemptCount int, newStatus TaskStatus, nextAttemptAt, now time.Time) error {
	query := r.query(`
		UPDATE tasks
		SET status = $1, attempt_count = $2, updated_at = $3, next_attempt_at = $4
		WHERE id = $5
	`)
	_, err := r.db.ExecContext(ctx, query, newStatus, attemptCount, now.UTC(), nextAttemptAt.UTC(), taskID)
	return err
}
