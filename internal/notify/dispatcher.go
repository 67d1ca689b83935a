package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/repository"
)

// Dispatcher fans a notification out to recipients. Each recipient is
// attempted independently and every recipient gets a durable log entry
// whether or not live delivery worked. Send never returns an error: callers
// committed their state transition before dispatch and must not roll back.
type Dispatcher struct {
	pusher      Pusher
	log         repository.NotificationRepository
	logger      *zap.Logger
	metrics     *observability.Metrics
	pushTimeout time.Duration

	// Now is injectable for tests.
	Now func() time.Time
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(pusher Pusher, log repository.NotificationRepository, logger *zap.Logger, metrics *observability.Metrics, pushTimeout time.Duration) *Dispatcher {
	if pushTimeout <= 0 {
		pushTimeout = 5 * time.Second
	}
	return &Dispatcher{
		pusher:      pusher,
		log:         log,
		logger:      logger,
		metrics:     metrics,
		pushTimeout: pushTimeout,
		Now:         time.Now,
	}
}

// Send delivers payload to all recipients and reports per-recipient outcomes.
func (d *Dispatcher) Send(ctx context.Context, recipients []Recipient, payload Payload) DeliveryReport {
	var report DeliveryReport
	for _, recipient := range recipients {
		d.appendLog(ctx, recipient, payload)

		if recipient.Address == "" {
			report.Failed++
			report.Errors = append(report.Errors, RecipientError{
				UserID: recipient.UserID,
				Class:  FailureUnregistered,
				Err:    "no notification address registered",
			})
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.pushTimeout)
		err := d.pusher.Push(attemptCtx, recipient.Address, payload)
		cancel()
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, RecipientError{
				UserID: recipient.UserID,
				Class:  Classify(err),
				Err:    err.Error(),
			})
			d.logger.Warn("notification delivery failed",
				zap.String("recipient", recipient.UserID),
				zap.String("type", string(payload.Type)),
				zap.String("class", string(Classify(err))),
				zap.Error(err))
			continue
		}
		report.Succeeded++
	}

	d.metrics.RecordDelivery(string(payload.Type), report.Succeeded, report.Failed)
	d.logger.Info("notification dispatched",
		zap.String("type", string(payload.Type)),
		zap.String("task_id", payload.TaskID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report
}

func (d *Dispatcher) appendLog(ctx context.Context, recipient Recipient, payload Payload) {
	entry := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipient.UserID,
		Title:       payload.Title,
		Message:     payload.Message,
		Type:        payload.Type,
		TaskID:      payload.TaskID,
		Timestamp:   d.Now(),
		Read:        false,
		Sender:      payload.Sender,
	}
	if err := d.log.Append(ctx, entry); err != nil {
		d.logger.Warn("notification log append failed",
			zap.String("recipient", recipient.UserID),
			zap.Error(err))
	}
}
