package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.ozon.dev/qwestard/carexpert/internal/db"
)

// SQLProcessor пишет пачку одним INSERT в audit_logs
type SQLProcessor struct {
	db     *sql.DB
	driver string
}

func NewSQLProcessor(conn *sql.DB, driver string) *SQLProcessor {
	return &SQLProcessor{db: conn, driver: driver}
}

func (p *SQLProcessor) Process(ctx context.Context, batch []Record) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO audit_logs (seq, timestamp, action, entity, entity_id, old_status, new_status, message) VALUES `)

	params := make([]any, 0, len(batch)*8)
	paramIndex := 1
	for i, rec := range batch {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)", paramIndex, paramIndex+1, paramIndex+2, paramIndex+3, paramIndex+4, paramIndex+5, paramIndex+6, paramIndex+7))
		paramIndex += 8
		params = append(params, int64(rec.Seq), rec.Timestamp, rec.Action, rec.Entity, rec.EntityID, rec.OldStatus, rec.NewStatus, rec.Message)
	}
	if _, err := p.db.ExecContext(ctx, db.Rebind(p.driver, sb.String()), params...); err != nil {
		return fmt.Errorf("SQLProcessor error: %w", err)
	}
	return nil
}

// LogProcessor выводит записи в лог. Filter оставляет только записи,
// в сообщении которых есть подстрока (без учёта регистра).
type LogProcessor struct {
	Log    *slog.Logger
	Filter string
}

func (p *LogProcessor) Process(_ context.Context, batch []Record) error {
	filter := strings.ToLower(p.Filter)
	for _, rec := range batch {
		if filter != "" && !strings.Contains(strings.ToLower(rec.Message), filter) {
			continue
		}
		p.Log.Info("audit",
			"seq", rec.Seq,
			"action", rec.Action,
			"entity", rec.Entity,
			"id", rec.EntityID,
			"from", rec.OldStatus,
			"to", rec.NewStatus,
			"msg", rec.Message,
		)
	}
	return nil
}

// Publisher - транспорт событий (kafka, nats)
type Publisher interface {
	Publish(topic string, message []byte) error
}

// KeyedPublisher - транспорт с ключом сообщения (kafka)
type KeyedPublisher interface {
	PublishWithKey(topic, key string, message []byte) error
}

// Publish отправляет сообщение с ключом, если транспорт его поддерживает
func Publish(pub Publisher, topic, key string, message []byte) error {
	if kp, ok := pub.(KeyedPublisher); ok {
		return kp.PublishWithKey(topic, key, message)
	}
	return pub.Publish(topic, message)
}

// PublishProcessor отправляет каждую запись отдельным JSON-сообщением с ключом EntityID
type PublishProcessor struct {
	Publisher Publisher
	Topic     string
}

func (p *PublishProcessor) Process(ctx context.Context, batch []Record) error {
	for _, rec := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record: %w", err)
		}
		if err := Publish(p.Publisher, p.Topic, rec.EntityID, data); err != nil {
			return fmt.Errorf("publish audit record %d: %w", rec.Seq, err)
		}
	}
	return nil
}
