package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCompleter struct {
	mu      sync.Mutex
	results []int
	err     error
	calls   int
	nows    []time.Time
}

func (f *fakeCompleter) CompleteExpired(_ context.Context, _ *gorm.DB, now time.Time, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.nows = append(f.nows, now)
	if f.err != nil {
		return 0, f.err
	}
	if len(f.results) == 0 {
		return 0, nil
	}
	n := f.results[0]
	f.results = f.results[1:]
	return n, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCompletionWorker_RunOnceDrainsFullBatches(t *testing.T) {
	fake := &fakeCompleter{results: []int{2, 2, 1}}
	w := NewCompletionWorker(nil, fake, time.Hour)
	w.batchSize = 2
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	total := w.RunOnce(context.Background())

	assert.Equal(t, 5, total)
	assert.Equal(t, 3, fake.callCount())
	for _, n := range fake.nows {
		assert.Equal(t, fixed, n)
	}
}

func TestCompletionWorker_RunOnceStopsOnError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("db down")}
	w := NewCompletionWorker(nil, fake, time.Hour)

	assert.Equal(t, 0, w.RunOnce(context.Background()))
	assert.Equal(t, 1, fake.callCount())
}

func TestCompletionWorker_StartStopsOnCancel(t *testing.T) {
	fake := &fakeCompleter{}
	w := NewCompletionWorker(nil, fake, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := w.Start(ctx)

	require.Eventually(t, func() bool { return fake.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNewCompletionWorker_DefaultInterval(t *testing.T) {
	w := NewCompletionWorker(nil, &fakeCompleter{}, 0)
	assert.Equal(t, time.Hour, w.interval)
}
