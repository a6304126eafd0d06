package notifications

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"volunteer_backend/internal/logger"
)

//go:generate mockgen -source=dispatcher.go -destination=mocks/mock_dispatcher.go -package=mocks

// Dispatcher - контракт публикации в шину. Реализации: AMQP, Kafka, лог.
type Dispatcher interface {
	Publish(ctx context.Context, key RoutingKey, msg Message) error
	Close() error
}

// Encode - JSON тело сообщения
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, eris.Wrapf(err, "encode %s message", msg.NotificationType)
	}
	return body, nil
}

// LogDispatcher пишет сообщения в лог (messaging.driver: log, локальная разработка)
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Publish(ctx context.Context, key RoutingKey, msg Message) error {
	body, err := Encode(msg)
	if err != nil {
		return err
	}
	logger.CtxInfo(ctx, "notification (log driver)",
		"routing_key", string(key),
		"recipient_id", msg.Recipient.UserID,
		"body", string(body),
	)
	return nil
}

func (d *LogDispatcher) Close() error { return nil }
