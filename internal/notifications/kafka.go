package notifications

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twmb/franz-go/pkg/kgo"
)

const routingKeyHeader = "routing_key"

// KafkaDispatcher - альтернативный драйвер: один топик, ключ маршрутизации в заголовке,
// ключ записи - id получателя (порядок сообщений одному пользователю сохраняется).
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaDispatcher(brokers []string, topic string) (*KafkaDispatcher, error) {
	if len(brokers) == 0 {
		return nil, eris.New("kafka: no brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, eris.Wrap(err, "create kafka client")
	}
	return &KafkaDispatcher{client: client, topic: topic}, nil
}

func (d *KafkaDispatcher) Publish(ctx context.Context, key RoutingKey, msg Message) error {
	body, err := Encode(msg)
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(msg.Recipient.UserID),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: routingKeyHeader, Value: []byte(key)},
			{Key: "notification_type", Value: []byte(msg.NotificationType)},
		},
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return eris.Wrapf(err, "produce %s", key)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	d.client.Close()
	return nil
}
