// auditor читает журнал изменений из kafka и/или nats и пишет его в лог
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/nats-io/nats.go"

	"gitlab.ozon.dev/qwestard/carexpert/internal/audit"
	"gitlab.ozon.dev/qwestard/carexpert/internal/config"
	"gitlab.ozon.dev/qwestard/carexpert/internal/kafka"
	"gitlab.ozon.dev/qwestard/carexpert/internal/natsutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(ctx, log); err != nil {
		log.Error("auditor stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}
	brokers := cfg.Brokers()
	if len(brokers) == 0 && cfg.NATSURL == "" {
		return errors.New("не задан ни KAFKA_BROKERS, ни NATS_URL")
	}

	sink := &audit.LogProcessor{Log: log, Filter: cfg.AuditFilter}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()

		sub, err := natsutil.Subscribe(nc, cfg.NATSSubject, func(ctx context.Context, rec audit.Record) {
			_ = sink.Process(ctx, []audit.Record{rec})
		})
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer sub.Unsubscribe()
		log.Info("listening nats", "subject", cfg.NATSSubject)
	}

	if len(brokers) == 0 {
		<-ctx.Done()
		return nil
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	handler := kafka.ConsumerGroupHandler{
		Log: log,
		Handle: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var rec audit.Record
			if err := json.Unmarshal(msg.Value, &rec); err != nil {
				return fmt.Errorf("decode audit record at offset %d: %w", msg.Offset, err)
			}
			return sink.Process(ctx, []audit.Record{rec})
		},
	}
	log.Info("listening kafka", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	return kafka.StartSaramaConsumer(ctx, saramaCfg, brokers, cfg.KafkaGroupID, []string{cfg.KafkaTopic}, handler)
}
