package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/store"
)

// StudentRepository handles persistence for reporters.
type StudentRepository interface {
	Upsert(ctx context.Context, student *domain.Student) error
	Get(ctx context.Context, id string) (*domain.Student, error)
	List(ctx context.Context) ([]domain.Student, error)
	SetNotificationToken(ctx context.Context, id, token string) error
}

type studentRepository struct {
	store store.Store
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(s store.Store) StudentRepository {
	return &studentRepository{store: s}
}

func (r *studentRepository) Upsert(ctx context.Context, student *domain.Student) error {
	if student.ID == "" {
		return errors.New("student id required")
	}
	fields, err := encodeFields(student)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, store.CollectionStudents, student.ID, fields, true)
}

func (r *studentRepository) Get(ctx context.Context, id string) (*domain.Student, error) {
	doc, err := r.store.Get(ctx, store.CollectionStudents, id)
	if err != nil {
		return nil, err
	}
	var student domain.Student
	if err := decodeFields(doc.Fields, &student); err != nil {
		return nil, err
	}
	student.ID = doc.ID
	return &student, nil
}

func (r *studentRepository) List(ctx context.Context) ([]domain.Student, error) {
	docs, err := r.store.Query(ctx, store.CollectionStudents)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Student, 0, len(docs))
	for i := range docs {
		var student domain.Student
		if err := decodeFields(docs[i].Fields, &student); err != nil {
			return nil, err
		}
		student.ID = docs[i].ID
		result = append(result, student)
	}
	return result, nil
}

func (r *studentRepository) SetNotificationToken(ctx context.Context, id, token string) error {
	return r.store.Put(ctx, store.CollectionStudents, id, map[string]any{"fcmToken": token}, true)
}
