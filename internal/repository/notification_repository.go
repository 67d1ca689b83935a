package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/store"
)

// NotificationRepository is the durable per-recipient notification log.
type NotificationRepository interface {
	Append(ctx context.Context, notification *domain.Notification) error
	Get(ctx context.Context, id string) (*domain.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationRepository struct {
	store store.Store
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(s store.Store) NotificationRepository {
	return &notificationRepository{store: s}
}

func (r *notificationRepository) Append(ctx context.Context, notification *domain.Notification) error {
	if notification.ID == "" {
		return errors.New("notification id required")
	}
	if notification.RecipientID == "" {
		return errors.New("notification recipient required")
	}
	fields, err := encodeFields(notification)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, store.CollectionNotifications, notification.ID, fields, false)
}

func (r *notificationRepository) Get(ctx context.Context, id string) (*domain.Notification, error) {
	doc, err := r.store.Get(ctx, store.CollectionNotifications, id)
	if err != nil {
		return nil, err
	}
	var n domain.Notification
	if err := decodeFields(doc.Fields, &n); err != nil {
		return nil, err
	}
	n.ID = doc.ID
	return &n, nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	docs, err := r.store.Query(ctx, store.CollectionNotifications, store.Eq("recipientId", recipientID))
	if err != nil {
		return nil, err
	}
	result := make([]domain.Notification, 0, len(docs))
	for i := range docs {
		var n domain.Notification
		if err := decodeFields(docs[i].Fields, &n); err != nil {
			return nil, err
		}
		n.ID = docs[i].ID
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.store.Update(ctx, store.CollectionNotifications, id, map[string]any{"read": true})
}
