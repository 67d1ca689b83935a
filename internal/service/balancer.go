package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// LoadBalancer picks the least-loaded active staff member for a task. It only
// reads directory and task state; the lifecycle service applies the decision.
type LoadBalancer struct {
	staff       repository.StaffRepository
	tasks       repository.TaskRepository
	fallbackID  string
	scanTimeout time.Duration
	logger      *zap.Logger
}

// candidate is the short-lived per-decision view of one staff member. It is
// recomputed on every call and never cached across requests.
type candidate struct {
	id          string
	pendingLoad int
	hasToken    bool
}

// NewLoadBalancer creates the balancer.
func NewLoadBalancer(staff repository.StaffRepository, tasks repository.TaskRepository, cfg config.DispatchConfig, logger *zap.Logger) *LoadBalancer {
	return &LoadBalancer{
		staff:       staff,
		tasks:       tasks,
		fallbackID:  cfg.FallbackStaffID,
		scanTimeout: cfg.ScanTimeout(),
		logger:      logger,
	}
}

// FallbackID exposes the configured fallback staff id.
func (b *LoadBalancer) FallbackID() string {
	return b.fallbackID
}

// SelectAssignee returns the staff id to assign the next task to.
//
// Active staff are ordered by (pending load ascending, has notification token
// descending); ties keep the directory scan order. When no active staff
// exist, the configured fallback id is returned; without a fallback the call
// fails with NO_STAFF_AVAILABLE. Directory read failures surface as
// DIRECTORY_UNAVAILABLE.
func (b *LoadBalancer) SelectAssignee(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.scanTimeout)
	defer cancel()

	active := true
	staffList, err := b.staff.List(ctx, repository.StaffFilter{Active: &active})
	if err != nil {
		return "", apperrors.NewDirectoryUnavailable(err)
	}
	if len(staffList) == 0 {
		if b.fallbackID != "" {
			b.logger.Warn("no active staff; using fallback assignee", zap.String("staff_id", b.fallbackID))
			return b.fallbackID, nil
		}
		return "", apperrors.NewNoStaffAvailable()
	}

	candidates := make([]candidate, 0, len(staffList))
	for i := range staffList {
		load, err := b.tasks.CountPending(ctx, staffList[i].ID)
		if err != nil {
			return "", apperrors.NewDirectoryUnavailable(err)
		}
		candidates = append(candidates, candidate{
			id:          staffList[i].ID,
			pendingLoad: load,
			hasToken:    staffList[i].HasNotificationToken(),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].pendingLoad != candidates[j].pendingLoad {
			return candidates[i].pendingLoad < candidates[j].pendingLoad
		}
		return candidates[i].hasToken && !candidates[j].hasToken
	})

	chosen := candidates[0]
	b.logger.Info("assignee selected",
		zap.String("staff_id", chosen.id),
		zap.Int("pending_load", chosen.pendingLoad))
	return chosen.id, nil
}
