package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config - настройки приложения. Значения берутся из app.env, переменные
// окружения имеют приоритет.
type Config struct {
	DataDir        string `mapstructure:"DATA_DIR"`
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`
	PostgresDSN    string `mapstructure:"POSTGRES_DSN"`

	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	NATSURL     string `mapstructure:"NATS_URL"`
	NATSSubject string `mapstructure:"NATS_SUBJECT"`

	AuditBatchSize   int           `mapstructure:"AUDIT_BATCH_SIZE"`
	AuditTimeout     time.Duration `mapstructure:"AUDIT_TIMEOUT"`
	AuditChannelSize int           `mapstructure:"AUDIT_CHANNEL_SIZE"`
	AuditWorkers     int           `mapstructure:"AUDIT_WORKERS"`
	AuditFilter      string        `mapstructure:"AUDIT_FILTER"`

	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	OutboxMaxAttempts  int           `mapstructure:"OUTBOX_MAX_ATTEMPTS"`
	OutboxRetryDelay   time.Duration `mapstructure:"OUTBOX_RETRY_DELAY"`
}

var defaults = map[string]any{
	"DATA_DIR":           "./data",
	"STORAGE_BACKEND":    BackendFile,
	"SQLITE_PATH":        "./data/carexpert.db",
	"POSTGRES_DSN":       "host=localhost user=postgres password=postgres dbname=carexpert sslmode=disable",
	"LOG_FORMAT":         "text",
	"LOG_LEVEL":          "info",
	"KAFKA_BROKERS":      "",
	"KAFKA_TOPIC":        "carexpert-audit",
	"KAFKA_GROUP_ID":     "carexpert-auditor",
	"NATS_URL":           "",
	"NATS_SUBJECT":       "carexpert.audit",
	"AUDIT_BATCH_SIZE":   10,
	"AUDIT_TIMEOUT":      2 * time.Second,
	"AUDIT_CHANNEL_SIZE": 100,
	"AUDIT_WORKERS":      2,
	"AUDIT_FILTER":       "",

	"OUTBOX_POLL_INTERVAL": time.Second,
	"OUTBOX_MAX_ATTEMPTS":  3,
	"OUTBOX_RETRY_DELAY":   2 * time.Second,
}

// LoadConfig читает app.env из path, если он есть. Отсутствие файла не ошибка.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs error
	switch c.StorageBackend {
	case BackendFile, BackendSQLite, BackendPostgres:
	default:
		errs = errors.Join(errs, fmt.Errorf("STORAGE_BACKEND: неизвестный бэкенд %q", c.StorageBackend))
	}
	if c.AuditBatchSize < 1 {
		errs = errors.Join(errs, errors.New("AUDIT_BATCH_SIZE должен быть >= 1"))
	}
	if c.AuditWorkers < 1 {
		errs = errors.Join(errs, errors.New("AUDIT_WORKERS должен быть >= 1"))
	}
	if c.AuditChannelSize < 0 {
		errs = errors.Join(errs, errors.New("AUDIT_CHANNEL_SIZE должен быть >= 0"))
	}
	if c.AuditTimeout <= 0 {
		errs = errors.Join(errs, errors.New("AUDIT_TIMEOUT должен быть > 0"))
	}
	if c.OutboxPollInterval <= 0 {
		errs = errors.Join(errs, errors.New("OUTBOX_POLL_INTERVAL должен быть > 0"))
	}
	if c.OutboxMaxAttempts < 1 {
		errs = errors.Join(errs, errors.New("OUTBOX_MAX_ATTEMPTS должен быть >= 1"))
	}
	return errs
}

// Brokers - список брокеров kafka, пустой если kafka выключена
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
