// Package natsutil - JSON-помощники поверх NATS и издатель журнала изменений.
package natsutil

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// Publish сериализует v в JSON и публикует в subject
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return nc.Publish(subject, data)
}

// Subscribe разбирает JSON-сообщения в T. Битые сообщения пропускаются.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		handler(context.Background(), v)
	})
}

// Publisher публикует готовые байты, subject берётся из аргумента topic
type Publisher struct {
	Conn *nats.Conn
}

func (p Publisher) Publish(topic string, message []byte) error {
	return p.Conn.Publish(topic, message)
}
