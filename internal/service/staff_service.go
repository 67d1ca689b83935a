package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/store"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// StaffService manages the staff directory: provisioning, soft activation,
// notification tokens and login sessions.
type StaffService struct {
	staff      repository.StaffRepository
	students   repository.StudentRepository
	tasks      repository.TaskRepository
	tokens     *auth.TokenManager
	bcryptCost int

	// Now is injectable for tests.
	Now func() time.Time
}

// StaffDependencies bundles collaborators for the staff service.
type StaffDependencies struct {
	StaffRepo   repository.StaffRepository
	StudentRepo repository.StudentRepository
	TaskRepo    repository.TaskRepository
	Tokens      *auth.TokenManager
}

// StaffWorkload is one row of the workload report.
type StaffWorkload struct {
	StaffID        string `json:"staffId"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
	HasToken       bool   `json:"hasToken"`
	PendingTasks   int    `json:"pendingTasks"`
	CompletedTasks int    `json:"completedTasks"`
}

// WorkloadReport aggregates per-staff and total counts.
type WorkloadReport struct {
	Staff          []StaffWorkload `json:"staff"`
	TotalPending   int             `json:"totalPending"`
	TotalCompleted int             `json:"totalCompleted"`
}

// LoginResult carries the session token issued at login.
type LoginResult struct {
	Staff     *domain.Staff
	Token     string
	ExpiresAt time.Time
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	return &StaffService{
		staff:      deps.StaffRepo,
		students:   deps.StudentRepo,
		tasks:      deps.TaskRepo,
		tokens:     deps.Tokens,
		bcryptCost: cfg.Auth.BcryptCost,
		Now:        time.Now,
	}
}

// Create provisions a staff member. Ids shared with an existing student or
// staff member are rejected.
func (s *StaffService) Create(ctx context.Context, id, name, password string) (*domain.Staff, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, apperrors.NewValidationError("staff id and name are required", nil)
	}
	if _, err := s.students.Get(ctx, id); err == nil {
		return nil, apperrors.NewConflict("id already registered as a student", map[string]any{"id": id})
	}
	if _, err := s.staff.Get(ctx, id); err == nil {
		return nil, apperrors.NewConflict("staff member already exists", map[string]any{"id": id})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	staff := &domain.Staff{
		ID:           id,
		Name:         name,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    s.Now(),
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return staff, nil
}

// Get fetches one staff member.
func (s *StaffService) Get(ctx context.Context, id string) (*domain.Staff, error) {
	staff, err := s.staff.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewUnknownStaff(id)
		}
		return nil, apperrors.NewDirectoryUnavailable(err)
	}
	return staff, nil
}

// List returns all staff members.
func (s *StaffService) List(ctx context.Context) ([]domain.Staff, error) {
	staffList, err := s.staff.List(ctx, repository.StaffFilter{})
	if err != nil {
		return nil, apperrors.NewDirectoryUnavailable(err)
	}
	return staffList, nil
}

// SetActive toggles the soft-deactivation flag. Staff are never hard-deleted.
func (s *StaffService) SetActive(ctx context.Context, id string, active bool) (*domain.Staff, error) {
	staff, err := s.staff.Mutate(ctx, id, func(staff *domain.Staff) error {
		staff.Active = active
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewUnknownStaff(id)
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// UpdateNotificationToken stores a refreshed push token.
func (s *StaffService) UpdateNotificationToken(ctx context.Context, id, token string) error {
	_, err := s.staff.Mutate(ctx, id, func(staff *domain.Staff) error {
		staff.NotificationToken = token
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewUnknownStaff(id)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Login verifies credentials, records lastLoginAt and issues a session token.
// Deactivated staff cannot log in.
func (s *StaffService) Login(ctx context.Context, id, password string) (*LoginResult, error) {
	staff, err := s.staff.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewDirectoryUnavailable(err)
	}
	if !staff.Active {
		return nil, apperrors.NewUnauthorized("account deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	staff, err = s.staff.Mutate(ctx, id, func(staff *domain.Staff) error {
		now := s.Now()
		staff.LastLoginAt = &now
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	token, expiresAt, err := s.tokens.GenerateToken(staff.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Staff: staff, Token: token, ExpiresAt: expiresAt}, nil
}

// Workload reports per-staff pending/completed counts and totals.
func (s *StaffService) Workload(ctx context.Context) (*WorkloadReport, error) {
	staffList, err := s.staff.List(ctx, repository.StaffFilter{})
	if err != nil {
		return nil, apperrors.NewDirectoryUnavailable(err)
	}
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	pending := make(map[string]int)
	completed := make(map[string]int)
	report := &WorkloadReport{}
	for i := range tasks {
		if tasks[i].Completed() {
			completed[tasks[i].AssignedTo]++
			report.TotalCompleted++
		} else {
			pending[tasks[i].AssignedTo]++
			report.TotalPending++
		}
	}
	for i := range staffList {
		staff := staffList[i]
		report.Staff = append(report.Staff, StaffWorkload{
			StaffID:        staff.ID,
			Name:           staff.Name,
			Active:         staff.Active,
			HasToken:       staff.HasNotificationToken(),
			PendingTasks:   pending[staff.ID],
			CompletedTasks: completed[staff.ID],
		})
	}
	return report, nil
}
