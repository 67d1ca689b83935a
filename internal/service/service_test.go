package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/queue"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	"github.com/spec-kit/dispatch-service/internal/store"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	Ctx      context.Context
	Store    *store.MemStore
	Tasks    repository.TaskRepository
	Staff    repository.StaffRepository
	Students repository.StudentRepository
	Log      repository.NotificationRepository
	Jobs     *queue.MemoryQueue
	Events   events.Dispatcher
	Balancer *service.LoadBalancer
	Service  *service.TaskService
	Queue    *service.QueueService
	StaffSvc *service.StaffService
	Notify   *service.NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemStore()
	taskRepo := repository.NewTaskRepository(mem)
	staffRepo := repository.NewStaffRepository(mem)
	studentRepo := repository.NewStudentRepository(mem)
	logRepo := repository.NewNotificationRepository(mem)
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	jobs := queue.NewMemoryQueue(64)

	balancer := service.NewLoadBalancer(staffRepo, taskRepo, config.DispatchConfig{
		FallbackStaffID:    "staff1",
		ScanTimeoutSeconds: 5,
	}, logger)

	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:   taskRepo,
		StaffRepo:  staffRepo,
		Balancer:   balancer,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	taskService.Now = func() time.Time { return testTime }

	cfg := config.Config{}
	cfg.Auth.BcryptCost = bcrypt.MinCost
	staffService := service.NewStaffService(cfg, service.StaffDependencies{
		StaffRepo:   staffRepo,
		StudentRepo: studentRepo,
		TaskRepo:    taskRepo,
		Tokens:      auth.NewTokenManager("test-secret", 15),
	})
	staffService.Now = func() time.Time { return testTime }

	notifyService := service.NewNotificationService(config.NotifyConfig{Sender: "Maintenance Team"}, service.NotificationDependencies{
		Dispatcher:  dispatcher,
		Jobs:        jobs,
		StaffRepo:   staffRepo,
		StudentRepo: studentRepo,
		LogRepo:     logRepo,
		Logger:      logger,
	})
	notifyService.RegisterHandlers()

	queueService := service.NewQueueService(taskRepo, staffRepo, taskService, balancer, logger)

	return &testEnv{
		Ctx:      context.Background(),
		Store:    mem,
		Tasks:    taskRepo,
		Staff:    staffRepo,
		Students: studentRepo,
		Log:      logRepo,
		Jobs:     jobs,
		Events:   dispatcher,
		Balancer: balancer,
		Service:  taskService,
		Queue:    queueService,
		StaffSvc: staffService,
		Notify:   notifyService,
	}
}

func (env *testEnv) addStaff(t *testing.T, id, name, token string, active bool) {
	t.Helper()
	err := env.Staff.Create(env.Ctx, &domain.Staff{
		ID:                id,
		Name:              name,
		Active:            active,
		NotificationToken: token,
		CreatedAt:         testTime,
	})
	if err != nil {
		t.Fatalf("create staff %s: %v", id, err)
	}
}

func (env *testEnv) addTask(t *testing.T, id, assignedTo string, status domain.TaskStatus, createdAt time.Time) {
	t.Helper()
	task := &domain.Task{
		ID:         id,
		ReporterID: "student-1",
		Caption:    "leaking tap",
		Location:   "block A",
		Status:     status,
		AssignedTo: assignedTo,
		CreatedAt:  createdAt,
	}
	if status == domain.TaskStatusCompleted {
		done := createdAt.Add(time.Hour)
		task.CompletedAt = &done
	}
	if err := env.Tasks.Create(env.Ctx, task); err != nil {
		t.Fatalf("create task %s: %v", id, err)
	}
}

func (env *testEnv) drainJobs(t *testing.T) []queue.Job {
	t.Helper()
	var jobs []queue.Job
	for env.Jobs.Len() > 0 {
		ctx, cancel := context.WithTimeout(env.Ctx, time.Second)
		job, err := env.Jobs.Dequeue(ctx)
		cancel()
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// failingStore simulates an unavailable backend for every operation.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Get(context.Context, string, string) (*store.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Put(context.Context, string, string, map[string]any, bool) error {
	return errStoreDown
}
func (failingStore) Update(context.Context, string, string, map[string]any) error {
	return errStoreDown
}
func (failingStore) CheckAndUpdate(context.Context, string, string, int64, map[string]any) error {
	return errStoreDown
}
func (failingStore) Query(context.Context, string, ...store.Condition) ([]store.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Delete(context.Context, string, string) error {
	return errStoreDown
}
