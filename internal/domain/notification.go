package domain

import "time"

// NotificationType classifies log entries for consumers.
type NotificationType string

const (
	NotificationNewTask        NotificationType = "new_task"
	NotificationTaskCompleted  NotificationType = "task_completed"
	NotificationThankYou       NotificationType = "thank_you"
	NotificationAdminBroadcast NotificationType = "admin_broadcast"
	NotificationTest           NotificationType = "test"
)

// Notification is a durable per-recipient log entry, appended independent of
// live delivery success.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	TaskID      string           `json:"taskId,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Read        bool             `json:"read"`
	Sender      string           `json:"sender"`
}
