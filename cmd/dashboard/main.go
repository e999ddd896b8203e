package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nats-io/nats.go"

	"gitlab.ozon.dev/qwestard/carexpert/internal/audit"
	"gitlab.ozon.dev/qwestard/carexpert/internal/config"
	"gitlab.ozon.dev/qwestard/carexpert/internal/db"
	"gitlab.ozon.dev/qwestard/carexpert/internal/handler"
	"gitlab.ozon.dev/qwestard/carexpert/internal/kafka"
	"gitlab.ozon.dev/qwestard/carexpert/internal/natsutil"
	"gitlab.ozon.dev/qwestard/carexpert/internal/outbox"
	"gitlab.ozon.dev/qwestard/carexpert/internal/seed"
	"gitlab.ozon.dev/qwestard/carexpert/internal/storage"
	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	backend, conn, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	if conn != nil {
		defer conn.Close()
	}

	collections, res := storage.Load(ctx, backend, seed.Collections)
	if res.FromSnapshot {
		log.Info("state restored from snapshot", "backend", cfg.StorageBackend)
	} else {
		log.Warn("state seeded", "reason", res.Reason, "err", res.Err)
	}

	st := store.New(store.State{Collections: collections},
		store.WithSeedChats(seed.Collections().Chats),
		store.WithLogger(log),
	)

	saver := storage.NewSaver(backend, log)
	defer saver.Attach(st)()

	processors, closeTransports, err := auditProcessors(ctx, cfg, conn, log)
	if err != nil {
		return err
	}
	defer closeTransports()

	pool := audit.NewWorkerPool(audit.PoolConfig{
		BatchSize:   cfg.AuditBatchSize,
		Timeout:     cfg.AuditTimeout,
		ChannelSize: cfg.AuditChannelSize,
	}, log, processors...)
	pool.Start(ctx, cfg.AuditWorkers)
	detach := pool.Attach(st)
	defer func() {
		detach()
		pool.Shutdown()
		log.Info("stopped", "saved", saver.Saved(), "save_failed", saver.Failed(), "audit_dropped", pool.Dropped())
	}()

	repl(ctx, handler.New(st, os.Stdout))
	return nil
}

func repl(ctx context.Context, h *handler.Handler) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(os.Stdin)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				lines <- line
			}
			if err != nil {
				return
			}
		}
	}()

	fmt.Println("Введите 'help' для списка команд")
	for {
		fmt.Print("\n> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Println("\nВыход из приложения.")
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		err := h.Execute(parts[0], parts[1:])
		switch {
		case errors.Is(err, handler.ErrExit):
			fmt.Println("Выход из приложения.")
			return
		case err != nil:
			fmt.Println(err)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openBackend возвращает хранилище снапшотов; для SQL-бэкендов также
// соединение, которое переиспользует журнал изменений
func openBackend(ctx context.Context, cfg config.Config) (storage.Backend, *sql.DB, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		conn, err := db.NewDB(ctx, db.DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLBackend(conn, db.DriverSQLite), conn, nil
	case config.BackendPostgres:
		conn, err := db.NewDB(ctx, db.DriverPostgres, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLBackend(conn, db.DriverPostgres), conn, nil
	default:
		b, err := storage.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	}
}

// auditProcessors собирает обработчики журнала. При SQL-бэкенде kafka
// получает записи через очередь tasks, иначе напрямую.
func auditProcessors(ctx context.Context, cfg config.Config, conn *sql.DB, log *slog.Logger) ([]audit.Processor, func(), error) {
	procs := []audit.Processor{&audit.LogProcessor{Log: log, Filter: cfg.AuditFilter}}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	driver := db.DriverSQLite
	if cfg.StorageBackend == config.BackendPostgres {
		driver = db.DriverPostgres
	}
	if conn != nil {
		procs = append(procs, audit.NewSQLProcessor(conn, driver))
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer, err := kafka.NewSaramaProducer(brokers, log)
		if err != nil {
			return nil, closeAll, fmt.Errorf("kafka producer: %w", err)
		}
		closers = append(closers, func() { _ = producer.Close() })

		if conn != nil {
			repo := outbox.NewSQLTaskRepository(conn, driver)
			relay := outbox.NewRelay(repo, producer, cfg.KafkaTopic, log, cfg.OutboxPollInterval, cfg.AuditBatchSize,
				outbox.WithRetry(cfg.OutboxMaxAttempts, cfg.OutboxRetryDelay))
			relayCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				relay.Start(relayCtx)
			}()
			closers = append(closers, func() {
				cancel()
				<-done
				// пул к этому моменту уже остановлен, досылаем остаток
				relay.ProcessPending(context.Background())
			})
			procs = append(procs, &outbox.Processor{Repo: repo})
		} else {
			procs = append(procs, &audit.PublishProcessor{Publisher: producer, Topic: cfg.KafkaTopic})
		}
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("nats connect: %w", err)
		}
		closers = append(closers, func() { _ = nc.Drain() })
		procs = append(procs, &audit.PublishProcessor{Publisher: natsutil.Publisher{Conn: nc}, Topic: cfg.NATSSubject})
	}

	return procs, closeAll, nil
}
