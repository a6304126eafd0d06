package workers

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"volunteer_backend/internal/logger"
)

const (
	completionWorkerName = "completion_worker"
	defaultBatchSize     = 200
)

// ExpiredCompleter - часть ApplicationService, нужная воркеру
type ExpiredCompleter interface {
	CompleteExpired(ctx context.Context, db *gorm.DB, now time.Time, batchSize int) (int, error)
}

// CompletionWorker переводит ACCEPTED заявки прошедших возможностей в COMPLETED
type CompletionWorker struct {
	db        *gorm.DB
	completer ExpiredCompleter
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewCompletionWorker(db *gorm.DB, completer ExpiredCompleter, interval time.Duration) *CompletionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CompletionWorker{
		db:        db,
		completer: completer,
		interval:  interval,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
}

// Start запускает воркер в фоне. Остановка - отмена ctx; done закрывается после выхода.
func (w *CompletionWorker) Start(ctx context.Context) (done <-chan struct{}) {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		w.run(ctx)
	}()
	return ch
}

func (w *CompletionWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// первый проход сразу после старта
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Completion worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce обрабатывает пакеты, пока они заполняются целиком
func (w *CompletionWorker) RunOnce(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := w.completer.CompleteExpired(ctx, w.db, w.now(), w.batchSize)
		total += n
		if err != nil {
			logger.WorkerLog(completionWorkerName, "complete_expired", err)
			return total
		}
		if n < w.batchSize {
			break
		}
	}
	if total > 0 {
		logger.WorkerLog(completionWorkerName, fmt.Sprintf("completed %d applications", total), nil)
	}
	return total
}
