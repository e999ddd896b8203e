package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/db"
)

// SQLBackend хранит снапшоты в таблице snapshots (postgres или sqlite3)
type SQLBackend struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewSQLBackend(conn *sql.DB, driver string) *SQLBackend {
	return &SQLBackend{
		db:     conn,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (b *SQLBackend) query(q string) string {
	return db.Rebind(b.driver, q)
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := b.db.QueryRowContext(ctx, b.query(`SELECT payload FROM snapshots WHERE key = $1`), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot error: %w", err)
	}
	return []byte(payload), nil
}

func (b *SQLBackend) Put(ctx context.Context, key string, payload []byte) error {
	q := `INSERT INTO snapshots (key, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := b.db.ExecContext(ctx, b.query(q), key, string(payload), b.now()); err != nil {
		return fmt.Errorf("upsert snapshot error: %w", err)
	}
	return nil
}

// Close не закрывает соединение, им владеет вызывающий
func (b *SQLBackend) Close() error {
	return nil
}
