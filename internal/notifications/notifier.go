package notifications

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/metrics"
	"volunteer_backend/pkg/retry"
)

const (
	defaultPublishTimeout = 3 * time.Second
	defaultMaxParallel    = 8
)

// Notifier отправляет события после коммита. Доставка at-most-once:
// таймаут и один повтор на сообщение, затем warning в лог и сообщение теряется.
// Ошибки никогда не возвращаются вызывающему.
type Notifier struct {
	dispatcher  Dispatcher
	metrics     *metrics.Metrics
	timeout     time.Duration
	maxParallel int
}

type NotifierOption func(*Notifier)

func WithPublishTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

func WithMaxParallel(p int) NotifierOption {
	return func(n *Notifier) {
		if p > 0 {
			n.maxParallel = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) NotifierOption {
	return func(n *Notifier) { n.metrics = m }
}

func NewNotifier(d Dispatcher, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		dispatcher:  d,
		timeout:     defaultPublishTimeout,
		maxParallel: defaultMaxParallel,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify публикует все сообщения события и возвращает число доставленных.
// Отмена контекста запроса не прерывает публикацию.
func (n *Notifier) Notify(ctx context.Context, ev Event) int {
	if n == nil || n.dispatcher == nil || ev.Empty() {
		return 0
	}
	ctx = context.WithoutCancel(ctx)

	results := make([]bool, len(ev.Messages))
	var g errgroup.Group
	g.SetLimit(n.maxParallel)

	for i := range ev.Messages {
		msg := ev.Messages[i]
		g.Go(func() error {
			err := retry.Once(ctx, n.timeout, func(ctx context.Context) error {
				return n.dispatcher.Publish(ctx, ev.RoutingKey, msg)
			}, retryablePublish)

			logger.PublishLog(ctx, string(ev.RoutingKey), msg.Recipient.UserID, err)
			if err != nil {
				n.metrics.NotificationFailed(string(ev.RoutingKey))
				return nil
			}
			n.metrics.NotificationPublished(string(ev.RoutingKey))
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	delivered := 0
	for _, ok := range results {
		if ok {
			delivered++
		}
	}
	return delivered
}

// retryablePublish - при недоступном брокере повтор только задержит запрос
func retryablePublish(err error) bool {
	return !errors.Is(err, ErrBrokerUnavailable)
}

// Dropped - событие не удалось даже собрать (нет связей и т.п.): логируем и идем дальше
func Dropped(ctx context.Context, key RoutingKey, err error) {
	logger.CtxWarn(ctx, "notification event not built",
		"routing_key", string(key),
		"error", err.Error(),
	)
}
