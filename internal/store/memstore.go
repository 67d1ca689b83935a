package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store used when no database is configured and as
// the test fixture. Field values are normalized through JSON so both
// implementations observe the same value types.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memDoc
}

type memDoc struct {
	revision int64
	fields   map[string]any
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]map[string]*memDoc)}
}

func (m *MemStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Revision: doc.revision, Fields: cloneFields(doc.fields)}, nil
}

func (m *MemStore) Put(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.collections[collection]
	if col == nil {
		col = make(map[string]*memDoc)
		m.collections[collection] = col
	}
	existing, ok := col[id]
	if !ok {
		col[id] = &memDoc{revision: 1, fields: normalized}
		return nil
	}
	if merge {
		for k, v := range normalized {
			existing.fields[k] = v
		}
	} else {
		existing.fields = normalized
	}
	existing.revision++
	return nil
}

func (m *MemStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range normalized {
		doc.fields[k] = v
	}
	doc.revision++
	return nil
}

func (m *MemStore) CheckAndUpdate(ctx context.Context, collection, id string, revision int64, fields map[string]any) error {
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	if doc.revision != revision {
		return ErrRevisionMismatch
	}
	for k, v := range normalized {
		doc.fields[k] = v
	}
	doc.revision++
	return nil
}

func (m *MemStore) Query(ctx context.Context, collection string, conds ...Condition) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Document
	for id, doc := range m.collections[collection] {
		if matches(doc.fields, conds) {
			result = append(result, Document{ID: id, Revision: doc.revision, Fields: cloneFields(doc.fields)})
		}
	}
	return result, nil
}

func (m *MemStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func matches(fields map[string]any, conds []Condition) bool {
	for _, cond := range conds {
		val, ok := fields[cond.Field]
		if !ok {
			return false
		}
		want, err := normalizeValue(cond.Value)
		if err != nil {
			return false
		}
		if !compare(val, want, cond.Op) {
			return false
		}
	}
	return true
}

func compare(have, want any, op Operator) bool {
	if op == OpEq {
		return fmt.Sprint(have) == fmt.Sprint(want) && fmt.Sprintf("%T", have) == fmt.Sprintf("%T", want)
	}
	switch h := have.(type) {
	case float64:
		w, ok := want.(float64)
		if !ok {
			return false
		}
		return ordered(h, w, op)
	case string:
		w, ok := want.(string)
		if !ok {
			return false
		}
		return ordered(h, w, op)
	default:
		return false
	}
}

func ordered[T float64 | string](have, want T, op Operator) bool {
	switch op {
	case OpGt:
		return have > want
	case OpGte:
		return have >= want
	case OpLt:
		return have < want
	case OpLte:
		return have <= want
	default:
		return false
	}
}

func normalizeFields(fields map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("normalize fields: %w", err)
	}
	var normalized map[string]any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("normalize fields: %w", err)
	}
	if normalized == nil {
		normalized = map[string]any{}
	}
	return normalized, nil
}

func normalizeValue(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

func cloneFields(fields map[string]any) map[string]any {
	cloned, err := normalizeFields(fields)
	if err != nil {
		return map[string]any{}
	}
	return cloned
}
