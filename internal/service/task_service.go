package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/store"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// TaskService owns task lifecycle transitions. All writes to status,
// completedAt and assignedTo flow through this service; the balancer only
// reads. Notifications are published as events after the mutation commits
// and never gate the caller's result.
type TaskService struct {
	tasks      repository.TaskRepository
	staff      repository.StaffRepository
	balancer   *LoadBalancer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	// Now is injectable for tests.
	Now func() time.Time
}

// TaskDependencies bundles collaborators for the task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	StaffRepo  repository.StaffRepository
	Balancer   *LoadBalancer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// TaskCreateInput describes an incoming maintenance report.
type TaskCreateInput struct {
	ReporterID   string
	ReporterName string
	Caption      string
	Location     string
	EvidenceRef  string
}

// BulkReassignFailure records one failed item of a bulk reassignment.
type BulkReassignFailure struct {
	TaskID string `json:"taskId"`
	Reason string `json:"reason"`
}

// BulkReassignResult reports partial success of a bulk reassignment.
type BulkReassignResult struct {
	Succeeded int                   `json:"succeeded"`
	Failed    []BulkReassignFailure `json:"failed"`
}

// Analytics holds simple task counters.
type Analytics struct {
	TotalTasks     int     `json:"totalTasks"`
	PendingTasks   int     `json:"pendingTasks"`
	CompletedTasks int     `json:"completedTasks"`
	CompletionRate float64 `json:"completionRate"`
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		staff:      deps.StaffRepo,
		balancer:   deps.Balancer,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		Now:        time.Now,
	}
}

// Create registers a new task and routes it to the least-loaded staff member.
//
// A directory failure never drops the report: the task falls back to the
// configured default assignee, or is persisted unassigned for the queue
// coordinator to resolve. Only a store write failure fails the call.
func (s *TaskService) Create(ctx context.Context, input TaskCreateInput) (*domain.Task, error) {
	if strings.TrimSpace(input.ReporterID) == "" {
		return nil, apperrors.NewValidationError("reporter id required", nil)
	}

	assignee, err := s.balancer.SelectAssignee(ctx)
	if err != nil {
		switch {
		case apperrors.IsCode(err, "NO_STAFF_AVAILABLE"):
			assignee = ""
		case apperrors.IsCode(err, "DIRECTORY_UNAVAILABLE"):
			assignee = s.balancer.FallbackID()
			s.logger.Warn("directory unavailable during create; using fallback",
				zap.String("staff_id", assignee), zap.Error(err))
		default:
			return nil, apperrors.MapError(err)
		}
	}

	task := &domain.Task{
		ID:           uuid.NewString(),
		ReporterID:   strings.TrimSpace(input.ReporterID),
		ReporterName: strings.TrimSpace(input.ReporterName),
		Caption:      strings.TrimSpace(input.Caption),
		Location:     strings.TrimSpace(input.Location),
		EvidenceRef:  strings.TrimSpace(input.EvidenceRef),
		Status:       domain.TaskStatusPending,
		AssignedTo:   assignee,
		CreatedAt:    s.Now(),
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if assignee != "" {
		s.metrics.RecordAssignment(assignee)
	}

	s.publish(ctx, events.Event{
		Type:   events.EventTaskCreated,
		TaskID: task.ID,
		Actor:  task.ReporterID,
		Payload: events.TaskCreatedPayload{
			AssignedTo: task.AssignedTo,
			Caption:    task.Caption,
			Location:   task.Location,
		},
	})
	return task, nil
}

// Complete moves a task to its terminal state. Double completion is rejected
// with ALREADY_COMPLETED and leaves completedAt untouched.
func (s *TaskService) Complete(ctx context.Context, taskID, evidenceRef, actorStaffID string) (*domain.Task, error) {
	task, err := s.tasks.Mutate(ctx, taskID, func(task *domain.Task) error {
		if task.Completed() {
			return apperrors.NewAlreadyCompleted(taskID)
		}
		now := s.Now()
		task.Status = domain.TaskStatusCompleted
		task.CompletedAt = &now
		task.CompletionEvidenceRef = evidenceRef
		return nil
	})
	if err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}

	staffName := actorStaffID
	if staffMember, err := s.staff.Get(ctx, actorStaffID); err == nil {
		staffName = staffMember.Name
	}

	s.publish(ctx, events.Event{
		Type:   events.EventTaskCompleted,
		TaskID: task.ID,
		Actor:  actorStaffID,
		Payload: events.TaskCompletedPayload{
			ReporterID:  task.ReporterID,
			Caption:     task.Caption,
			EvidenceRef: evidenceRef,
			StaffID:     actorStaffID,
			StaffName:   staffName,
		},
	})
	return task, nil
}

// Reassign moves a pending task to another staff member and appends an audit
// trail entry. Reassigning a completed task fails with INVALID_TRANSITION.
func (s *TaskService) Reassign(ctx context.Context, taskID, newStaffID, actor string) (*domain.Task, error) {
	if _, err := s.staff.Get(ctx, newStaffID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewUnknownStaff(newStaffID)
		}
		return nil, apperrors.NewDirectoryUnavailable(err)
	}

	var previous string
	task, err := s.tasks.Mutate(ctx, taskID, func(task *domain.Task) error {
		if task.Completed() {
			return apperrors.NewInvalidTransition("cannot reassign a completed task", map[string]any{"task_id": taskID})
		}
		previous = task.AssignedTo
		task.ReassignmentHistory = append(task.ReassignmentHistory, domain.Reassignment{
			From:  previous,
			To:    newStaffID,
			At:    s.Now(),
			Actor: actor,
		})
		task.AssignedTo = newStaffID
		return nil
	})
	if err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}
	s.metrics.RecordAssignment(newStaffID)

	s.publish(ctx, events.Event{
		Type:   events.EventTaskAssigned,
		TaskID: task.ID,
		Actor:  actor,
		Payload: events.TaskAssignedPayload{
			AssignedTo:       newStaffID,
			PreviousAssignee: previous,
			Caption:          task.Caption,
			Location:         task.Location,
		},
	})
	return task, nil
}

// BulkReassign applies Reassign per task id; individual failures never abort
// the batch.
func (s *TaskService) BulkReassign(ctx context.Context, taskIDs []string, newStaffID, actor string) (BulkReassignResult, error) {
	if _, err := s.staff.Get(ctx, newStaffID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return BulkReassignResult{}, apperrors.NewUnknownStaff(newStaffID)
		}
		return BulkReassignResult{}, apperrors.NewDirectoryUnavailable(err)
	}

	result := BulkReassignResult{Failed: []BulkReassignFailure{}}
	for _, taskID := range taskIDs {
		if _, err := s.Reassign(ctx, taskID, newStaffID, actor); err != nil {
			result.Failed = append(result.Failed, BulkReassignFailure{
				TaskID: taskID,
				Reason: apperrors.CodeOf(err),
			})
			continue
		}
		result.Succeeded++
	}
	s.logger.Info("bulk reassignment finished",
		zap.String("staff_id", newStaffID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// Assign is the internal assignment path used by the queue coordinator for
// tasks that never had a valid assignee; it skips reassignment bookkeeping.
func (s *TaskService) Assign(ctx context.Context, taskID, staffID string) (*domain.Task, error) {
	task, err := s.tasks.Mutate(ctx, taskID, func(task *domain.Task) error {
		if task.Completed() {
			return apperrors.NewInvalidTransition("cannot assign a completed task", map[string]any{"task_id": taskID})
		}
		task.AssignedTo = staffID
		return nil
	})
	if err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}
	s.metrics.RecordAssignment(staffID)

	s.publish(ctx, events.Event{
		Type:   events.EventTaskAssigned,
		TaskID: task.ID,
		Actor:  "dispatcher",
		Payload: events.TaskAssignedPayload{
			AssignedTo: staffID,
			Caption:    task.Caption,
			Location:   task.Location,
		},
	})
	return task, nil
}

// UpdateLocation corrects the location of a pending task.
func (s *TaskService) UpdateLocation(ctx context.Context, taskID, location string) (*domain.Task, error) {
	task, err := s.tasks.Mutate(ctx, taskID, func(task *domain.Task) error {
		if task.Completed() {
			return apperrors.NewInvalidTransition("cannot update a completed task", map[string]any{"task_id": taskID})
		}
		task.Location = strings.TrimSpace(location)
		return nil
	})
	if err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}
	return task, nil
}

// Get fetches a single task.
func (s *TaskService) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}
	return task, nil
}

// ListForStaff returns a staff member's tasks, optionally filtered by status.
func (s *TaskService) ListForStaff(ctx context.Context, staffID string, status *domain.TaskStatus) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{AssignedTo: &staffID, Status: status})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tasks, nil
}

// ListAll returns every task, oldest first.
func (s *TaskService) ListAll(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tasks, nil
}

// HistoryForReporter returns a reporter's tasks, newest first.
func (s *TaskService) HistoryForReporter(ctx context.Context, reporterID string) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{ReporterID: &reporterID})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	// List returns oldest first; history reads newest first.
	for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	}
	return tasks, nil
}

// CompletedCount returns the number of tasks a staff member has completed.
func (s *TaskService) CompletedCount(ctx context.Context, staffID string) (int, error) {
	completed := domain.TaskStatusCompleted
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{AssignedTo: &staffID, Status: &completed})
	if err != nil {
		return 0, apperrors.NewStoreUnavailable(err)
	}
	return len(tasks), nil
}

// GetAnalytics computes simple task counters.
func (s *TaskService) GetAnalytics(ctx context.Context) (*Analytics, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	analytics := &Analytics{TotalTasks: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed() {
			analytics.CompletedTasks++
		} else {
			analytics.PendingTasks++
		}
	}
	if analytics.TotalTasks > 0 {
		analytics.CompletionRate = float64(analytics.CompletedTasks) / float64(analytics.TotalTasks) * 100
	}
	return analytics, nil
}

func (s *TaskService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TaskService) mapTaskErr(err error, taskID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
	}
	return apperrors.MapError(err)
}
