package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/dispatch-service/internal/notify"
	"github.com/spec-kit/dispatch-service/internal/queue"
)

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := queue.NewMemoryQueue(4)
	ctx := context.Background()

	job := queue.Job{
		ID:         "j1",
		Recipients: []notify.Recipient{{UserID: "staff-a", Address: "tok"}},
		Payload:    notify.Payload{Title: "hi"},
		EnqueuedAt: time.Now(),
	}
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected length 1, got %d", q.Len())
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got.ID != "j1" || len(got.Recipients) != 1 {
		t.Fatalf("bad job: %+v", got)
	}
}

func TestMemoryQueueFull(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, queue.Job{ID: "j1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, queue.Job{ID: "j2"}); !errors.Is(err, queue.ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
