package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/store"
)

// casRetryLimit bounds optimistic-concurrency retries on a single document.
const casRetryLimit = 3

// TaskFilter captures task query parameters.
type TaskFilter struct {
	AssignedTo *string
	Status     *domain.TaskStatus
	ReporterID *string
}

// TaskRepository encapsulates task persistence. Mutate is the single write
// path for existing tasks: the mutation function sees the freshest committed
// record and its result is committed with a revision check, so concurrent
// writers never interleave field writes.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	CountPending(ctx context.Context, staffID string) (int, error)
	Mutate(ctx context.Context, id string, fn func(task *domain.Task) error) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	store store.Store
}

// NewTaskRepository instantiates the repository.
func NewTaskRepository(s store.Store) TaskRepository {
	return &taskRepository{store: s}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := validateTask(task); err != nil {
		return err
	}
	fields, err := encodeFields(task)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, store.CollectionTasks, task.ID, fields, false)
}

func (r *taskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	doc, err := r.store.Get(ctx, store.CollectionTasks, id)
	if err != nil {
		return nil, err
	}
	return taskFromDocument(doc)
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	var conds []store.Condition
	if filter.AssignedTo != nil {
		conds = append(conds, store.Eq("assignedTo", *filter.AssignedTo))
	}
	if filter.Status != nil {
		conds = append(conds, store.Eq("status", string(*filter.Status)))
	}
	if filter.ReporterID != nil {
		conds = append(conds, store.Eq("reporterId", *filter.ReporterID))
	}
	docs, err := r.store.Query(ctx, store.CollectionTasks, conds...)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Task, 0, len(docs))
	for i := range docs {
		task, err := taskFromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	// The adapter guarantees no server-side ordering.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *taskRepository) CountPending(ctx context.Context, staffID string) (int, error) {
	docs, err := r.store.Query(ctx, store.CollectionTasks,
		store.Eq("assignedTo", staffID),
		store.Eq("status", string(domain.TaskStatusPending)))
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (r *taskRepository) Mutate(ctx context.Context, id string, fn func(task *domain.Task) error) (*domain.Task, error) {
	var lastErr error
	for attempt := 0; attempt < casRetryLimit; attempt++ {
		doc, err := r.store.Get(ctx, store.CollectionTasks, id)
		if err != nil {
			return nil, err
		}
		task, err := taskFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if err := fn(task); err != nil {
			return nil, err
		}
		if err := validateTask(task); err != nil {
			return nil, err
		}
		fields, err := encodeFields(task)
		if err != nil {
			return nil, err
		}
		err = r.store.CheckAndUpdate(ctx, store.CollectionTasks, id, doc.Revision, fields)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, store.ErrRevisionMismatch) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("task %s: too many concurrent updates: %w", id, lastErr)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.CollectionTasks, id)
}

func taskFromDocument(doc *store.Document) (*domain.Task, error) {
	var task domain.Task
	if err := decodeFields(doc.Fields, &task); err != nil {
		return nil, err
	}
	task.ID = doc.ID
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	return &task, nil
}

func validateTask(task *domain.Task) error {
	if task.ID == "" {
		return errors.New("task id required")
	}
	if task.ReporterID == "" {
		return errors.New("task reporter required")
	}
	if task.Status != domain.TaskStatusPending && task.Status != domain.TaskStatusCompleted {
		return fmt.Errorf("invalid task status %q", task.Status)
	}
	if task.CreatedAt.IsZero() {
		return errors.New("task createdAt required")
	}
	if (task.Status == domain.TaskStatusCompleted) != (task.CompletedAt != nil) {
		return errors.New("completedAt must be set exactly when status is completed")
	}
	return nil
}
