package kafka

import (
	"io"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type SaramaProducer struct {
	producer sarama.SyncProducer
	log      *slog.Logger
}

func NewSaramaProducer(brokers []string, log *slog.Logger) (*SaramaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	config.Producer.RequiredAcks = sarama.WaitForAll
	prod, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return NewProducer(prod, log), nil
}

// NewProducer оборачивает готовый SyncProducer (например, из sarama/mocks)
func NewProducer(prod sarama.SyncProducer, log *slog.Logger) *SaramaProducer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SaramaProducer{producer: prod, log: log}
}

func (p *SaramaProducer) Publish(topic string, message []byte) error {
	return p.PublishWithKey(topic, "", message)
}

// PublishWithKey отправляет сообщение с ключом партиционирования: события
// одного заказа попадают в одну партицию и читаются по порядку
func (p *SaramaProducer) PublishWithKey(topic, key string, message []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(message),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error("kafka send failed", "topic", topic, "key", key, "err", err)
		return err
	}
	p.log.Debug("kafka message stored", "topic", topic, "key", key, "partition", partition, "offset", offset)
	return nil
}

func (p *SaramaProducer) Close() error {
	return p.producer.Close()
}
