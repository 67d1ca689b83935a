package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/store"
)

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	err := s.Put(ctx, "tasks", "t1", map[string]any{"caption": "leak", "count": 2}, false)
	require.NoError(t, err)

	doc, err := s.Get(ctx, "tasks", "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), doc.Revision)
	require.Equal(t, "leak", doc.Fields["caption"])
	// Numbers are normalized through JSON.
	require.Equal(t, float64(2), doc.Fields["count"])
}

func TestGetNotFound(t *testing.T) {
	s := store.NewMemStore()
	_, err := s.Get(context.Background(), "tasks", "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutMerge(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	require.NoError(t, s.Put(ctx, "staff", "s1", map[string]any{"name": "Alice", "active": true}, false))
	require.NoError(t, s.Put(ctx, "staff", "s1", map[string]any{"fcmToken": "tok"}, true))

	doc, err := s.Get(ctx, "staff", "s1")
	require.NoError(t, err)
	require.Equal(t, "Alice", doc.Fields["name"])
	require.Equal(t, "tok", doc.Fields["fcmToken"])
	require.Equal(t, int64(2), doc.Revision)
}

func TestPutReplace(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	require.NoError(t, s.Put(ctx, "staff", "s1", map[string]any{"name": "Alice", "active": true}, false))
	require.NoError(t, s.Put(ctx, "staff", "s1", map[string]any{"name": "Alicia"}, false))

	doc, err := s.Get(ctx, "staff", "s1")
	require.NoError(t, err)
	require.Equal(t, "Alicia", doc.Fields["name"])
	require.NotContains(t, doc.Fields, "active")
}

func TestUpdateRequiresExistingDocument(t *testing.T) {
	s := store.NewMemStore()
	err := s.Update(context.Background(), "tasks", "missing", map[string]any{"status": "completed"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCheckAndUpdateRevisionGate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	require.NoError(t, s.Put(ctx, "tasks", "t1", map[string]any{"status": "pending"}, false))
	doc, err := s.Get(ctx, "tasks", "t1")
	require.NoError(t, err)

	// A concurrent writer bumps the revision.
	require.NoError(t, s.Update(ctx, "tasks", "t1", map[string]any{"location": "block A"}))

	err = s.CheckAndUpdate(ctx, "tasks", "t1", doc.Revision, map[string]any{"status": "completed"})
	require.ErrorIs(t, err, store.ErrRevisionMismatch)

	fresh, err := s.Get(ctx, "tasks", "t1")
	require.NoError(t, err)
	require.Equal(t, "pending", fresh.Fields["status"])

	require.NoError(t, s.CheckAndUpdate(ctx, "tasks", "t1", fresh.Revision, map[string]any{"status": "completed"}))
	final, err := s.Get(ctx, "tasks", "t1")
	require.NoError(t, err)
	require.Equal(t, "completed", final.Fields["status"])
}

func TestQueryEquality(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	require.NoError(t, s.Put(ctx, "tasks", "t1", map[string]any{"assignedTo": "staff-a", "status": "pending"}, false))
	require.NoError(t, s.Put(ctx, "tasks", "t2", map[string]any{"assignedTo": "staff-a", "status": "completed"}, false))
	require.NoError(t, s.Put(ctx, "tasks", "t3", map[string]any{"assignedTo": "staff-b", "status": "pending"}, false))

	docs, err := s.Query(ctx, "tasks", store.Eq("assignedTo", "staff-a"), store.Eq("status", "pending"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "t1", docs[0].ID)
}

func TestQueryRange(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	require.NoError(t, s.Put(ctx, "tasks", "t1", map[string]any{"priority": 1}, false))
	require.NoError(t, s.Put(ctx, "tasks", "t2", map[string]any{"priority": 5}, false))

	docs, err := s.Query(ctx, "tasks", store.Condition{Field: "priority", Op: store.OpGte, Value: 3})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "t2", docs[0].ID)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	require.NoError(t, s.Put(ctx, "tasks", "t1", map[string]any{"status": "pending"}, false))
	require.NoError(t, s.Delete(ctx, "tasks", "t1"))
	require.NoError(t, s.Delete(ctx, "tasks", "t1"))

	_, err := s.Get(ctx, "tasks", "t1")
	require.ErrorIs(t, err, store.ErrNotFound)
}
