package domain

import "time"

// TaskStatus enumerates lifecycle states for maintenance tasks.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Reassignment is an audit trail entry appended on each manual reassignment.
type Reassignment struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	At    time.Time `json:"at"`
	Actor string    `json:"actor"`
}

// Task is the aggregate for a reported maintenance issue.
//
// An empty AssignedTo means the task is queued; the stored model keeps the
// two-state status the admin tooling expects.
type Task struct {
	ID                    string         `json:"-"`
	ReporterID            string         `json:"reporterId"`
	ReporterName          string         `json:"reporterName"`
	Caption               string         `json:"caption"`
	Location              string         `json:"location"`
	EvidenceRef           string         `json:"evidenceRef,omitempty"`
	Status                TaskStatus     `json:"status"`
	AssignedTo            string         `json:"assignedTo"`
	CreatedAt             time.Time      `json:"createdAt"`
	CompletedAt           *time.Time     `json:"completedAt,omitempty"`
	CompletionEvidenceRef string         `json:"completionEvidenceRef,omitempty"`
	ReassignmentHistory   []Reassignment `json:"reassignmentHistory,omitempty"`
}

// Unassigned reports whether the task has no assignee recorded.
func (t *Task) Unassigned() bool {
	return t.AssignedTo == ""
}

// Completed reports whether the task reached its terminal state.
func (t *Task) Completed() bool {
	return t.Status == TaskStatusCompleted
}
