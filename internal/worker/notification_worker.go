package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/notify"
	"github.com/spec-kit/dispatch-service/internal/queue"
)

// NotificationWorker drains the dispatch queue with a bounded pool of
// goroutines. Delivery failures are reported by the dispatcher; the worker
// never retries a job.
type NotificationWorker struct {
	queue      queue.Queue
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	count      int
	wg         sync.WaitGroup
}

// NewNotificationWorker creates the pool.
func NewNotificationWorker(q queue.Queue, dispatcher *notify.Dispatcher, logger *zap.Logger, count int) *NotificationWorker {
	if count <= 0 {
		count = 4
	}
	return &NotificationWorker{
		queue:      q,
		dispatcher: dispatcher,
		logger:     logger,
		count:      count,
	}
}

// Start launches the worker goroutines; they run until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	w.logger.Info("notification workers started", zap.Int("count", w.count))
}

// Wait blocks until all workers have exited.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

func (w *NotificationWorker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("dequeue failed", zap.Int("worker", id), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		w.dispatcher.Send(ctx, job.Recipients, job.Payload)
	}
}
