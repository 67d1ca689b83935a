package service_test

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

func TestCreateAssignsLeastLoaded(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addStaff(t, "staff-b", "Bob", "", true)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)

	task, err := env.Service.Create(env.Ctx, service.TaskCreateInput{
		ReporterID: "student-1",
		Caption:    "broken window",
		Location:   "block C",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.AssignedTo != "staff-b" {
		t.Fatalf("expected staff-b, got %s", task.AssignedTo)
	}
	if task.Status != domain.TaskStatusPending {
		t.Fatalf("expected pending, got %s", task.Status)
	}
	if !task.CreatedAt.Equal(testTime) {
		t.Fatalf("createdAt not stamped: %v", task.CreatedAt)
	}

	stored, err := env.Service.Get(env.Ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.AssignedTo != "staff-b" {
		t.Fatalf("assignment not persisted: %s", stored.AssignedTo)
	}
}

func TestCreateKeepsEvidenceRef(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)

	task, err := env.Service.Create(env.Ctx, service.TaskCreateInput{
		ReporterID:  "student-1",
		Caption:     "clogged drain",
		Location:    "block A",
		EvidenceRef: "uploads/drain.jpg",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.EvidenceRef != "uploads/drain.jpg" {
		t.Fatalf("evidence ref not recorded: %q", task.EvidenceRef)
	}

	stored, err := env.Service.Get(env.Ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.EvidenceRef != "uploads/drain.jpg" {
		t.Fatalf("evidence ref not persisted: %q", stored.EvidenceRef)
	}
}

func TestCreateRequiresReporter(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Service.Create(env.Ctx, service.TaskCreateInput{Caption: "no reporter"})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestCreateFallsBackWhenDirectoryEmpty(t *testing.T) {
	env := newTestEnv(t)

	task, err := env.Service.Create(env.Ctx, service.TaskCreateInput{ReporterID: "student-1", Caption: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.AssignedTo != "staff1" {
		t.Fatalf("expected fallback staff1, got %q", task.AssignedTo)
	}
}

func TestCreatePersistsUnassignedWithoutFallback(t *testing.T) {
	env := newTestEnv(t)
	balancer := service.NewLoadBalancer(env.Staff, env.Tasks, config.DispatchConfig{}, zap.NewNop())
	svc := service.NewTaskService(service.TaskDependencies{
		TaskRepo:  env.Tasks,
		StaffRepo: env.Staff,
		Balancer:  balancer,
		Metrics:   observability.NewMetrics(),
		Logger:    zap.NewNop(),
	})
	svc.Now = func() time.Time { return testTime }

	task, err := svc.Create(env.Ctx, service.TaskCreateInput{ReporterID: "student-1", Caption: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !task.Unassigned() {
		t.Fatalf("expected unassigned task, got %q", task.AssignedTo)
	}
}

func TestCreateUsesFallbackWhenDirectoryDown(t *testing.T) {
	env := newTestEnv(t)
	broken := repository.NewStaffRepository(failingStore{})
	balancer := service.NewLoadBalancer(broken, env.Tasks, config.DispatchConfig{FallbackStaffID: "staff1"}, zap.NewNop())
	svc := service.NewTaskService(service.TaskDependencies{
		TaskRepo:  env.Tasks,
		StaffRepo: broken,
		Balancer:  balancer,
		Metrics:   observability.NewMetrics(),
		Logger:    zap.NewNop(),
	})
	svc.Now = func() time.Time { return testTime }

	task, err := svc.Create(env.Ctx, service.TaskCreateInput{ReporterID: "student-1", Caption: "x"})
	if err != nil {
		t.Fatalf("create must survive directory outage: %v", err)
	}
	if task.AssignedTo != "staff1" {
		t.Fatalf("expected fallback staff1, got %q", task.AssignedTo)
	}
}

func TestCompleteTask(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)

	task, err := env.Service.Complete(env.Ctx, "t1", "photos/after.jpg", "staff-a")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !task.Completed() {
		t.Fatalf("expected completed, got %s", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(testTime) {
		t.Fatalf("completedAt not stamped: %v", task.CompletedAt)
	}
	if task.CompletionEvidenceRef != "photos/after.jpg" {
		t.Fatalf("evidence ref not recorded: %q", task.CompletionEvidenceRef)
	}
}

func TestDoubleCompleteRejected(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)

	first, err := env.Service.Complete(env.Ctx, "t1", "", "staff-a")
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}

	env.Service.Now = func() time.Time { return testTime.Add(time.Hour) }
	_, err = env.Service.Complete(env.Ctx, "t1", "", "staff-a")
	if !apperrors.IsCode(err, "ALREADY_COMPLETED") {
		t.Fatalf("expected ALREADY_COMPLETED, got %v", err)
	}

	stored, err := env.Service.Get(env.Ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.CompletedAt.Equal(*first.CompletedAt) {
		t.Fatalf("completedAt changed on rejected completion: %v vs %v", stored.CompletedAt, first.CompletedAt)
	}
}

func TestCompleteUnknownTask(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Service.Complete(env.Ctx, "missing", "", "staff-a")
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestReassignAppendsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addStaff(t, "staff-b", "Bob", "", true)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)

	task, err := env.Service.Reassign(env.Ctx, "t1", "staff-b", "admin")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if task.AssignedTo != "staff-b" {
		t.Fatalf("expected staff-b, got %s", task.AssignedTo)
	}
	if len(task.ReassignmentHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(task.ReassignmentHistory))
	}
	entry := task.ReassignmentHistory[0]
	if entry.From != "staff-a" || entry.To != "staff-b" || entry.Actor != "admin" {
		t.Fatalf("bad history entry: %+v", entry)
	}
}

func TestReassignUnknownStaff(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)

	_, err := env.Service.Reassign(env.Ctx, "t1", "ghost", "admin")
	if !apperrors.IsCode(err, "UNKNOWN_STAFF") {
		t.Fatalf("expected UNKNOWN_STAFF, got %v", err)
	}

	stored, _ := env.Service.Get(env.Ctx, "t1")
	if stored.AssignedTo != "staff-a" {
		t.Fatalf("assignment mutated on failed reassign: %s", stored.AssignedTo)
	}
}

func TestReassignCompletedTaskRejected(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addStaff(t, "staff-b", "Bob", "", true)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusCompleted, testTime)

	_, err := env.Service.Reassign(env.Ctx, "t1", "staff-b", "admin")
	if !apperrors.IsCode(err, "INVALID_TRANSITION") {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}

	stored, _ := env.Service.Get(env.Ctx, "t1")
	if stored.AssignedTo != "staff-a" {
		t.Fatalf("completed task mutated: %s", stored.AssignedTo)
	}
}

func TestBulkReassignPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addStaff(t, "staff-b", "Bob", "", true)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)
	env.addTask(t, "t2", "staff-a", domain.TaskStatusCompleted, testTime)

	result, err := env.Service.BulkReassign(env.Ctx, []string{"t1", "t2", "ghost"}, "staff-b", "admin")
	if err != nil {
		t.Fatalf("bulk reassign: %v", err)
	}
	if result.Succeeded != 1 {
		t.Fatalf("expected 1 success, got %d", result.Succeeded)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(result.Failed))
	}
	reasons := map[string]string{}
	for _, failure := range result.Failed {
		reasons[failure.TaskID] = failure.Reason
	}
	if reasons["t2"] != "INVALID_TRANSITION" {
		t.Fatalf("t2 reason: %s", reasons["t2"])
	}
	if reasons["ghost"] != "NOT_FOUND" {
		t.Fatalf("ghost reason: %s", reasons["ghost"])
	}
}

func TestBulkReassignUnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	env.addTask(t, "t1", "", domain.TaskStatusPending, testTime)

	_, err := env.Service.BulkReassign(env.Ctx, []string{"t1"}, "ghost", "admin")
	if !apperrors.IsCode(err, "UNKNOWN_STAFF") {
		t.Fatalf("expected UNKNOWN_STAFF, got %v", err)
	}
}

func TestHistoryForReporterNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)
	env.addTask(t, "t2", "staff-a", domain.TaskStatusPending, testTime.Add(time.Minute))
	env.addTask(t, "t3", "staff-a", domain.TaskStatusPending, testTime.Add(2*time.Minute))

	history, err := env.Service.HistoryForReporter(env.Ctx, "student-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(history))
	}
	if history[0].ID != "t3" || history[2].ID != "t1" {
		t.Fatalf("history not newest first: %s, %s, %s", history[0].ID, history[1].ID, history[2].ID)
	}
}

func TestGetAnalytics(t *testing.T) {
	env := newTestEnv(t)
	env.addTask(t, "t1", "staff-a", domain.TaskStatusPending, testTime)
	env.addTask(t, "t2", "staff-a", domain.TaskStatusCompleted, testTime)
	env.addTask(t, "t3", "staff-a", domain.TaskStatusCompleted, testTime)
	env.addTask(t, "t4", "staff-a", domain.TaskStatusCompleted, testTime)

	analytics, err := env.Service.GetAnalytics(env.Ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.TotalTasks != 4 || analytics.PendingTasks != 1 || analytics.CompletedTasks != 3 {
		t.Fatalf("bad counters: %+v", analytics)
	}
	if analytics.CompletionRate != 75 {
		t.Fatalf("expected completion rate 75, got %v", analytics.CompletionRate)
	}
}
