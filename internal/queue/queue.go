package queue

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/dispatch-service/internal/notify"
)

var (
	// ErrEmpty is returned by Dequeue when no job arrived within the poll
	// interval.
	ErrEmpty = errors.New("queue empty")
	// ErrFull is returned by Enqueue when the queue rejects the job; the
	// caller logs and drops, it never blocks a committed mutation.
	ErrFull = errors.New("queue full")
)

// Job is one notification dispatch unit handed to the worker pool after the
// triggering state transition committed.
type Job struct {
	ID         string             `json:"id"`
	Recipients []notify.Recipient `json:"recipients"`
	Payload    notify.Payload     `json:"payload"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
}

// Queue is the notification job queue.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (Job, error)
}
