package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/service"
)

// NotificationResponse is one notification log entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	TaskID    string                  `json:"task_id,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
	Read      bool                    `json:"read"`
	Sender    string                  `json:"sender"`
}

// NewNotificationResponses maps log entries.
func NewNotificationResponses(entries []domain.Notification) []NotificationResponse {
	result := make([]NotificationResponse, 0, len(entries))
	for i := range entries {
		result = append(result, NotificationResponse{
			ID:        entries[i].ID,
			Title:     entries[i].Title,
			Message:   entries[i].Message,
			Type:      entries[i].Type,
			TaskID:    entries[i].TaskID,
			Timestamp: entries[i].Timestamp,
			Read:      entries[i].Read,
			Sender:    entries[i].Sender,
		})
	}
	return result
}

// BroadcastRequest is the admin announcement payload.
type BroadcastRequest struct {
	Target service.BroadcastTarget `json:"target"`
	UserID string                  `json:"user_id"`
	Title  string                  `json:"title"`
	Body   string                  `json:"body"`
}
