package store

import (
	"context"
	"errors"
)

// Collection names used by the service.
const (
	CollectionTasks         = "tasks"
	CollectionStaff         = "staff"
	CollectionStudents      = "students"
	CollectionNotifications = "notifications"
)

var (
	// ErrNotFound indicates the document id is unknown in the collection.
	ErrNotFound = errors.New("document not found")
	// ErrRevisionMismatch indicates a check-and-update lost a race with a
	// concurrent writer.
	ErrRevisionMismatch = errors.New("document revision mismatch")
)

// Operator is a predicate comparison for Query.
type Operator string

const (
	OpEq  Operator = "=="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

// Condition filters documents on a named top-level field.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Document is a stored record with its concurrency revision.
type Document struct {
	ID       string
	Revision int64
	Fields   map[string]any
}

// Store is the document-store adapter. Implementations must provide atomic
// per-document updates: Update and CheckAndUpdate never interleave field
// writes with a concurrent call on the same document. Query results carry no
// ordering guarantee; callers sort client-side.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Put(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	CheckAndUpdate(ctx context.Context, collection, id string, revision int64, fields map[string]any) error
	Query(ctx context.Context, collection string, conds ...Condition) ([]Document, error)
	Delete(ctx context.Context, collection, id string) error
}
