package notifications

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"

	"volunteer_backend/internal/logger"
)

const (
	connectTimeout  = 5 * time.Second
	amqpHeartbeat   = 10 * time.Second
	minReconnectGap = time.Second
	maxReconnectGap = 30 * time.Second
)

// ErrBrokerUnavailable - брокер недоступен, переподключение отложено.
// Сообщение отбрасывается сразу, без повторной попытки.
var ErrBrokerUnavailable = errors.New("notification broker unavailable")

// AMQPDispatcher публикует в durable topic exchange.
// Соединение восстанавливается лениво при следующей публикации, не чаще,
// чем позволяет reconnect backoff.
type AMQPDispatcher struct {
	url      string
	exchange string

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	reconnect backoff.BackOff
	nextDial  time.Time
	now       func() time.Time
}

func NewAMQPDispatcher(url, exchange string) (*AMQPDispatcher, error) {
	d := newAMQPDispatcher(url, exchange)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.connectLocked(ctx); err != nil {
		return nil, err
	}
	logger.Info("Connected to RabbitMQ", "exchange", exchange)
	return d, nil
}

func newAMQPDispatcher(url, exchange string) *AMQPDispatcher {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minReconnectGap
	b.MaxInterval = maxReconnectGap
	b.MaxElapsedTime = 0

	return &AMQPDispatcher{
		url:       url,
		exchange:  exchange,
		reconnect: b,
		now:       time.Now,
	}
}

// connectLocked - dial и handshake ограничены дедлайном ctx
func (d *AMQPDispatcher) connectLocked(ctx context.Context) error {
	conn, err := amqp.DialConfig(d.url, amqp.Config{
		Heartbeat: amqpHeartbeat,
		Dial:      contextDialer(ctx),
	})
	if err != nil {
		return eris.Wrap(err, "dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return eris.Wrap(err, "open rabbitmq channel")
	}

	// name, kind, durable, autoDelete, internal, noWait, args
	if err := ch.ExchangeDeclare(d.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return eris.Wrapf(err, "declare exchange %s", d.exchange)
	}

	d.conn, d.ch = conn, ch
	return nil
}

// contextDialer - TCP dial по ctx, дедлайн сокета на время handshake.
// amqp091 снимает дедлайн после успешного открытия соединения.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(connectTimeout)
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func (d *AMQPDispatcher) Publish(ctx context.Context, key RoutingKey, msg Message) error {
	body, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureConnectedLocked(ctx); err != nil {
		return err
	}

	err = d.ch.PublishWithContext(ctx, d.exchange, string(key), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         string(msg.NotificationType),
		Body:         body,
	})
	if err != nil {
		return eris.Wrapf(err, "publish %s", key)
	}
	return nil
}

// ensureConnectedLocked - пока не прошел reconnect backoff, сразу ErrBrokerUnavailable
func (d *AMQPDispatcher) ensureConnectedLocked(ctx context.Context) error {
	if d.ch != nil && !d.ch.IsClosed() && d.conn != nil && !d.conn.IsClosed() {
		return nil
	}
	_ = d.closeLocked()

	now := d.now()
	if now.Before(d.nextDial) {
		return ErrBrokerUnavailable
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reconnect rabbitmq: %w", err)
	}
	if err := d.connectLocked(ctx); err != nil {
		d.nextDial = d.now().Add(d.reconnect.NextBackOff())
		logger.Warn("RabbitMQ reconnect failed", "retry_at", d.nextDial, "error", err.Error())
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	d.reconnect.Reset()
	d.nextDial = time.Time{}
	logger.Info("Reconnected to RabbitMQ", "exchange", d.exchange)
	return nil
}

func (d *AMQPDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *AMQPDispatcher) closeLocked() error {
	var firstErr error
	if d.ch != nil {
		if err := d.ch.Close(); err != nil && !eris.Is(err, amqp.ErrClosed) {
			firstErr = err
		}
		d.ch = nil
	}
	if d.conn != nil {
		if err := d.conn.Close(); err != nil && !eris.Is(err, amqp.ErrClosed) && firstErr == nil {
			firstErr = err
		}
		d.conn = nil
	}
	return firstErr
}
