package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/store"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// StudentService manages the reporter directory.
type StudentService struct {
	students repository.StudentRepository

	Now func() time.Time
}

// NewStudentService constructs the service.
func NewStudentService(students repository.StudentRepository) *StudentService {
	return &StudentService{students: students, Now: time.Now}
}

// Register upserts a student profile.
func (s *StudentService) Register(ctx context.Context, id, name, registerNumber string) (*domain.Student, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("student id required", nil)
	}
	student := &domain.Student{
		ID:             id,
		Name:           strings.TrimSpace(name),
		RegisterNumber: strings.TrimSpace(registerNumber),
		CreatedAt:      s.Now(),
	}
	if err := s.students.Upsert(ctx, student); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return student, nil
}

// Get fetches one student.
func (s *StudentService) Get(ctx context.Context, id string) (*domain.Student, error) {
	student, err := s.students.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound("student", map[string]any{"student_id": id})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return student, nil
}

// UpdateNotificationToken stores a refreshed push token.
func (s *StudentService) UpdateNotificationToken(ctx context.Context, id, token string) error {
	if err := s.students.SetNotificationToken(ctx, id, token); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}
