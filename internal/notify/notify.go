package notify

import (
	"context"
	"errors"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// FailureClass categorizes a failed delivery attempt for observability.
type FailureClass string

const (
	FailureUnregistered  FailureClass = "Unregistered"
	FailureQuotaExceeded FailureClass = "QuotaExceeded"
	FailureMalformed     FailureClass = "Malformed"
	FailureUnknown       FailureClass = "Unknown"
)

// Recipient is a delivery target: log identity plus push address.
type Recipient struct {
	UserID  string `json:"user_id"`
	Address string `json:"address,omitempty"`
}

// Payload is the notification content fanned out to recipients.
type Payload struct {
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Type    domain.NotificationType `json:"type"`
	TaskID  string                  `json:"task_id,omitempty"`
	Sender  string                  `json:"sender,omitempty"`
}

// RecipientError records a single failed delivery.
type RecipientError struct {
	UserID string       `json:"user_id"`
	Class  FailureClass `json:"class"`
	Err    string       `json:"error,omitempty"`
}

// DeliveryReport accounts per-recipient outcomes of one dispatch.
type DeliveryReport struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    []RecipientError `json:"errors,omitempty"`
}

// PushError carries a delivery failure classification.
type PushError struct {
	Class FailureClass
	Err   error
}

func (e *PushError) Error() string {
	if e.Err != nil {
		return string(e.Class) + ": " + e.Err.Error()
	}
	return string(e.Class)
}

func (e *PushError) Unwrap() error {
	return e.Err
}

// Classify extracts the failure class from a push error.
func Classify(err error) FailureClass {
	var pushErr *PushError
	if errors.As(err, &pushErr) {
		return pushErr.Class
	}
	return FailureUnknown
}

// Pusher attempts live delivery of one notification to one address.
type Pusher interface {
	Push(ctx context.Context, address string, payload Payload) error
}
