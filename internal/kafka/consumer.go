package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
)

// MessageHandler обрабатывает одно сообщение. Ошибка логируется,
// сообщение всё равно помечается прочитанным.
type MessageHandler func(ctx context.Context, msg *sarama.ConsumerMessage) error

type ConsumerGroupHandler struct {
	Handle MessageHandler
	Log    *slog.Logger
}

func (ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.Handle(session.Context(), msg); err != nil {
			h.Log.Error("handle message failed",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

// StartSaramaConsumer читает топики группой, пока не отменён ctx
func StartSaramaConsumer(ctx context.Context, cfg *sarama.Config, brokers []string, groupID string, topics []string, handler ConsumerGroupHandler) (err error) {
	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return fmt.Errorf("error creating consumer group: %w", err)
	}
	defer func() {
		if cerr := consumerGroup.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("error closing consumer group: %w", cerr))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := consumerGroup.Consume(ctx, topics, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return nil
				}
				handler.Log.Error("error from consumer", "err", err)
			}
		}
	}
}
