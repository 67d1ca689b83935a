package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTaskCreated   EventType = "task_created"
	EventTaskAssigned  EventType = "task_assigned"
	EventTaskCompleted EventType = "task_completed"
)

// Event represents a domain event emitted by services after a committed
// mutation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TaskID    string      `json:"task_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	AssignedTo string `json:"assigned_to,omitempty"`
	Caption    string `json:"caption"`
	Location   string `json:"location"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	AssignedTo       string `json:"assigned_to"`
	PreviousAssignee string `json:"previous_assignee,omitempty"`
	Caption          string `json:"caption"`
	Location         string `json:"location"`
}

// TaskCompletedPayload payload.
type TaskCompletedPayload struct {
	ReporterID  string `json:"reporter_id"`
	Caption     string `json:"caption"`
	EvidenceRef string `json:"evidence_ref,omitempty"`
	StaffID     string `json:"staff_id,omitempty"`
	StaffName   string `json:"staff_name,omitempty"`
}
