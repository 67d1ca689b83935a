package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// QueueService resolves unassigned and orphaned tasks. A task qualifies when
// it is not completed and either carries no assignee or its assignee no
// longer exists in the staff directory.
type QueueService struct {
	tasks     repository.TaskRepository
	staff     repository.StaffRepository
	lifecycle *TaskService
	balancer  *LoadBalancer
	logger    *zap.Logger
}

// UnassignedTask describes one queue entry with its qualification reason.
type UnassignedTask struct {
	Task   domain.Task `json:"task"`
	Reason string      `json:"reason"`
}

// DrainResult reports how many queued tasks were assigned.
type DrainResult struct {
	Assigned int `json:"assigned"`
}

// ClearResult reports how many queued tasks were removed.
type ClearResult struct {
	Removed int `json:"removed"`
}

// QueueStatus summarizes the current queue for the admin surface.
type QueueStatus struct {
	QueueLength    int     `json:"queueLength"`
	AvgWaitSeconds float64 `json:"avgWaitSeconds"`
	MaxWaitSeconds float64 `json:"maxWaitSeconds"`
}

// NewQueueService constructs the coordinator.
func NewQueueService(tasks repository.TaskRepository, staff repository.StaffRepository, lifecycle *TaskService, balancer *LoadBalancer, logger *zap.Logger) *QueueService {
	return &QueueService{
		tasks:     tasks,
		staff:     staff,
		lifecycle: lifecycle,
		balancer:  balancer,
		logger:    logger,
	}
}

// FindUnassigned returns queued tasks oldest first, each with the reason it
// qualifies.
func (s *QueueService) FindUnassigned(ctx context.Context) ([]UnassignedTask, error) {
	staffList, err := s.staff.List(ctx, repository.StaffFilter{})
	if err != nil {
		return nil, apperrors.NewDirectoryUnavailable(err)
	}
	validIDs := make(map[string]struct{}, len(staffList))
	for i := range staffList {
		validIDs[staffList[i].ID] = struct{}{}
	}

	tasks, err := s.tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	var result []UnassignedTask
	for i := range tasks {
		task := tasks[i]
		if task.Completed() {
			continue
		}
		if task.Unassigned() {
			result = append(result, UnassignedTask{Task: task, Reason: "no assignment"})
			continue
		}
		if _, ok := validIDs[task.AssignedTo]; !ok {
			result = append(result, UnassignedTask{Task: task, Reason: "staff " + task.AssignedTo + " not found"})
		}
	}
	return result, nil
}

// DrainQueue assigns every queued task through the load balancer. Assignment
// stops early when no staff are available; already-drained tasks stay
// assigned.
func (s *QueueService) DrainQueue(ctx context.Context) (DrainResult, error) {
	queued, err := s.FindUnassigned(ctx)
	if err != nil {
		return DrainResult{}, err
	}

	var result DrainResult
	for i := range queued {
		assignee, err := s.balancer.SelectAssignee(ctx)
		if err != nil {
			s.logger.Warn("queue drain stopped", zap.Int("assigned", result.Assigned), zap.Error(err))
			return result, nil
		}
		if _, err := s.lifecycle.Assign(ctx, queued[i].Task.ID, assignee); err != nil {
			// A task completed or deleted mid-drain is skipped, not fatal.
			s.logger.Warn("queue drain skipped task",
				zap.String("task_id", queued[i].Task.ID), zap.Error(err))
			continue
		}
		result.Assigned++
	}
	s.logger.Info("queue drained", zap.Int("assigned", result.Assigned))
	return result, nil
}

// ClearQueue deletes every queued task. Irreversible; maintenance use only.
func (s *QueueService) ClearQueue(ctx context.Context) (ClearResult, error) {
	queued, err := s.FindUnassigned(ctx)
	if err != nil {
		return ClearResult{}, err
	}
	var result ClearResult
	for i := range queued {
		if err := s.tasks.Delete(ctx, queued[i].Task.ID); err != nil {
			s.logger.Warn("queue clear failed for task",
				zap.String("task_id", queued[i].Task.ID), zap.Error(err))
			continue
		}
		result.Removed++
	}
	s.logger.Info("queue cleared", zap.Int("removed", result.Removed))
	return result, nil
}

// Status reports queue length and wait times.
func (s *QueueService) Status(ctx context.Context) (QueueStatus, error) {
	queued, err := s.FindUnassigned(ctx)
	if err != nil {
		return QueueStatus{}, err
	}
	status := QueueStatus{QueueLength: len(queued)}
	if len(queued) == 0 {
		return status, nil
	}
	now := s.lifecycle.Now()
	var total float64
	for i := range queued {
		wait := now.Sub(queued[i].Task.CreatedAt).Seconds()
		total += wait
		if wait > status.MaxWaitSeconds {
			status.MaxWaitSeconds = wait
		}
	}
	status.AvgWaitSeconds = total / float64(len(queued))
	return status, nil
}
