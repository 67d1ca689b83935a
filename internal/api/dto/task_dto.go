package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/service"
)

// CreateReportRequest is the task ingestion payload. Media upload happens out
// of band; the request carries only the stored evidence reference.
type CreateReportRequest struct {
	ReporterID   string `json:"reporter_id"`
	ReporterName string `json:"reporter_name"`
	Caption      string `json:"caption"`
	Location     string `json:"location"`
	EvidenceRef  string `json:"evidence_ref"`
}

// CompleteTaskRequest is the completion payload.
type CompleteTaskRequest struct {
	EvidenceRef string `json:"evidence_ref"`
}

// UpdateLocationRequest corrects a task location.
type UpdateLocationRequest struct {
	Location string `json:"location"`
}

// TaskResponse is the full task view.
type TaskResponse struct {
	ID                    string                `json:"id"`
	ReporterID            string                `json:"reporter_id"`
	ReporterName          string                `json:"reporter_name"`
	Caption               string                `json:"caption"`
	Location              string                `json:"location"`
	EvidenceRef           string                `json:"evidence_ref,omitempty"`
	Status                domain.TaskStatus     `json:"status"`
	AssignedTo            string                `json:"assigned_to,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
	CompletedAt           *time.Time            `json:"completed_at,omitempty"`
	CompletionEvidenceRef string                `json:"completion_evidence_ref,omitempty"`
	ReassignmentHistory   []domain.Reassignment `json:"reassignment_history,omitempty"`
}

// NewTaskResponse maps a domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                    task.ID,
		ReporterID:            task.ReporterID,
		ReporterName:          task.ReporterName,
		Caption:               task.Caption,
		Location:              task.Location,
		EvidenceRef:           task.EvidenceRef,
		Status:                task.Status,
		AssignedTo:            task.AssignedTo,
		CreatedAt:             task.CreatedAt,
		CompletedAt:           task.CompletedAt,
		CompletionEvidenceRef: task.CompletionEvidenceRef,
		ReassignmentHistory:   task.ReassignmentHistory,
	}
}

// NewTaskResponses maps a task slice.
func NewTaskResponses(tasks []domain.Task) []TaskResponse {
	result := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, NewTaskResponse(&tasks[i]))
	}
	return result
}

// ReassignRequest is the manual reassignment payload.
type ReassignRequest struct {
	TaskID  string `json:"task_id"`
	StaffID string `json:"staff_id"`
}

// BulkReassignRequest is the bulk reassignment payload.
type BulkReassignRequest struct {
	TaskIDs []string `json:"task_ids"`
	StaffID string   `json:"staff_id"`
}

// BulkReassignResponse reports the batch outcome.
type BulkReassignResponse struct {
	Succeeded int                           `json:"succeeded"`
	Failed    []service.BulkReassignFailure `json:"failed"`
}
