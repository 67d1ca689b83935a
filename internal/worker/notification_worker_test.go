package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/notify"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/queue"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/store"
	"github.com/spec-kit/dispatch-service/internal/worker"
)

type recordingPusher struct {
	mu     sync.Mutex
	pushed []string
}

func (p *recordingPusher) Push(ctx context.Context, address string, payload notify.Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, address)
	return nil
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed)
}

func TestWorkerDeliversQueuedJobs(t *testing.T) {
	pusher := &recordingPusher{}
	log := repository.NewNotificationRepository(store.NewMemStore())
	dispatcher := notify.NewDispatcher(pusher, log, zap.NewNop(), observability.NewMetrics(), time.Second)
	jobs := queue.NewMemoryQueue(8)

	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.NewNotificationWorker(jobs, dispatcher, zap.NewNop(), 2)
	pool.Start(ctx)

	for i := 0; i < 3; i++ {
		err := jobs.Enqueue(ctx, queue.Job{
			ID:         "job",
			Recipients: []notify.Recipient{{UserID: "staff-a", Address: "tok"}},
			Payload:    notify.Payload{Title: "hi"},
		})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for pusher.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 deliveries, got %d", pusher.count())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	pool.Wait()
}

func TestWorkerStopsOnCancel(t *testing.T) {
	pusher := &recordingPusher{}
	log := repository.NewNotificationRepository(store.NewMemStore())
	dispatcher := notify.NewDispatcher(pusher, log, zap.NewNop(), observability.NewMetrics(), time.Second)
	jobs := queue.NewMemoryQueue(8)

	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.NewNotificationWorker(jobs, dispatcher, zap.NewNop(), 1)
	pool.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop after cancel")
	}
}
