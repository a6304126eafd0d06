//go:build integration

package helpers

import (
	"context"
	"sync"

	"volunteer_backend/internal/notifications"
)

// Published - одно сообщение, ушедшее в шину
type Published struct {
	RoutingKey notifications.RoutingKey
	Message    notifications.Message
}

// RecordingDispatcher запоминает опубликованные сообщения вместо отправки в брокер
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []Published
}

func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{}
}

func (d *RecordingDispatcher) Publish(_ context.Context, key notifications.RoutingKey, msg notifications.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, Published{RoutingKey: key, Message: msg})
	return nil
}

func (d *RecordingDispatcher) Close() error { return nil }

// ByKey - сообщения с данным ключом в порядке публикации
func (d *RecordingDispatcher) ByKey(key notifications.RoutingKey) []Published {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Published
	for _, p := range d.sent {
		if p.RoutingKey == key {
			out = append(out, p)
		}
	}
	return out
}

func (d *RecordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = nil
}
