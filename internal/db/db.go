package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations
var migrations embed.FS

// goose держит FS и диалект в глобальных переменных
var gooseMu sync.Mutex

// NewDB открывает соединение и накатывает встроенные миграции для драйвера
func NewDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db error: %w", err)
	}
	if driver == DriverSQLite {
		// один писатель, иначе sqlite отвечает "database is locked"
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db error: %w", err)
	}
	if err := Migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("goose dialect error: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations/"+driver); err != nil {
		return fmt.Errorf("goose up error: %w", err)
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Rebind переписывает плейсхолдеры $1, $2... в ? для sqlite.
// Параметры в запросах должны идти по порядку.
func Rebind(driver, q string) string {
	if driver != DriverSQLite {
		return q
	}
	return placeholder.ReplaceAllString(q, "?")
}
