package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/store"
)

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Active *bool
}

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	Get(ctx context.Context, id string) (*domain.Staff, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error)
	Mutate(ctx context.Context, id string, fn func(staff *domain.Staff) error) (*domain.Staff, error)
}

type staffRepository struct {
	store store.Store
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(s store.Store) StaffRepository {
	return &staffRepository{store: s}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	if staff.ID == "" {
		return errors.New("staff id required")
	}
	if staff.Name == "" {
		return errors.New("staff name required")
	}
	fields, err := encodeFields(staff)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, store.CollectionStaff, staff.ID, fields, false)
}

func (r *staffRepository) Get(ctx context.Context, id string) (*domain.Staff, error) {
	doc, err := r.store.Get(ctx, store.CollectionStaff, id)
	if err != nil {
		return nil, err
	}
	return staffFromDocument(doc)
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error) {
	var conds []store.Condition
	if filter.Active != nil {
		conds = append(conds, store.Eq("active", *filter.Active))
	}
	docs, err := r.store.Query(ctx, store.CollectionStaff, conds...)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Staff, 0, len(docs))
	for i := range docs {
		staff, err := staffFromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *staff)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *staffRepository) Mutate(ctx context.Context, id string, fn func(staff *domain.Staff) error) (*domain.Staff, error) {
	var lastErr error
	for attempt := 0; attempt < casRetryLimit; attempt++ {
		doc, err := r.store.Get(ctx, store.CollectionStaff, id)
		if err != nil {
			return nil, err
		}
		staff, err := staffFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if err := fn(staff); err != nil {
			return nil, err
		}
		fields, err := encodeFields(staff)
		if err != nil {
			return nil, err
		}
		err = r.store.CheckAndUpdate(ctx, store.CollectionStaff, id, doc.Revision, fields)
		if err == nil {
			return staff, nil
		}
		if !errors.Is(err, store.ErrRevisionMismatch) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("staff %s: too many concurrent updates: %w", id, lastErr)
}

func staffFromDocument(doc *store.Document) (*domain.Staff, error) {
	var staff domain.Staff
	if err := decodeFields(doc.Fields, &staff); err != nil {
		return nil, err
	}
	staff.ID = doc.ID
	return &staff, nil
}
