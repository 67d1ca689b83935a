package service_test

import (
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

func TestSelectAssigneeLeastLoaded(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addStaff(t, "staff-b", "Bob", "", true)
	env.addTask(t, "t1", "staff-b", domain.TaskStatusPending, testTime)
	env.addTask(t, "t2", "staff-b", domain.TaskStatusPending, testTime)

	id, err := env.Balancer.SelectAssignee(env.Ctx)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != "staff-a" {
		t.Fatalf("expected staff-a (0 pending), got %s", id)
	}
}

func TestSelectAssigneeIgnoresCompleted(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addStaff(t, "staff-b", "Bob", "", true)
	// Completed tasks carry no load.
	env.addTask(t, "t1", "staff-a", domain.TaskStatusCompleted, testTime)
	env.addTask(t, "t2", "staff-a", domain.TaskStatusCompleted, testTime)
	env.addTask(t, "t3", "staff-b", domain.TaskStatusPending, testTime)

	id, err := env.Balancer.SelectAssignee(env.Ctx)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != "staff-a" {
		t.Fatalf("expected staff-a, got %s", id)
	}
}

func TestSelectAssigneeSkipsInactive(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", false)
	env.addStaff(t, "staff-b", "Bob", "", true)
	env.addTask(t, "t1", "staff-b", domain.TaskStatusPending, testTime)

	id, err := env.Balancer.SelectAssignee(env.Ctx)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	// staff-a has the lowest load but is deactivated.
	if id != "staff-b" {
		t.Fatalf("expected staff-b, got %s", id)
	}
}

func TestSelectAssigneeTokenBreaksTies(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "", true)
	env.addStaff(t, "staff-b", "Bob", "token-b", true)

	id, err := env.Balancer.SelectAssignee(env.Ctx)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != "staff-b" {
		t.Fatalf("expected token holder staff-b on tie, got %s", id)
	}
}

func TestSelectAssigneeScanOrderOnFullTie(t *testing.T) {
	env := newTestEnv(t)
	env.addStaff(t, "staff-a", "Alice", "token-a", true)
	env.addStaff(t, "staff-b", "Bob", "token-b", true)

	id, err := env.Balancer.SelectAssignee(env.Ctx)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != "staff-a" {
		t.Fatalf("expected first directory entry staff-a, got %s", id)
	}
}

func TestSelectAssigneeFallbackWhenDirectoryEmpty(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.Balancer.SelectAssignee(env.Ctx)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != "staff1" {
		t.Fatalf("expected fallback staff1, got %s", id)
	}
}

func TestSelectAssigneeNoStaffWithoutFallback(t *testing.T) {
	env := newTestEnv(t)
	balancer := service.NewLoadBalancer(env.Staff, env.Tasks, config.DispatchConfig{}, zap.NewNop())

	_, err := balancer.SelectAssignee(env.Ctx)
	if !apperrors.IsCode(err, "NO_STAFF_AVAILABLE") {
		t.Fatalf("expected NO_STAFF_AVAILABLE, got %v", err)
	}
}

func TestSelectAssigneeDirectoryUnavailable(t *testing.T) {
	env := newTestEnv(t)
	broken := repository.NewStaffRepository(failingStore{})
	balancer := service.NewLoadBalancer(broken, env.Tasks, config.DispatchConfig{FallbackStaffID: "staff1"}, zap.NewNop())

	_, err := balancer.SelectAssignee(env.Ctx)
	if !apperrors.IsCode(err, "DIRECTORY_UNAVAILABLE") {
		t.Fatalf("expected DIRECTORY_UNAVAILABLE, got %v", err)
	}
}
