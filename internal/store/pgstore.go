package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists documents in a single JSONB-backed table. Row-level update
// statements give the per-document atomicity the engine relies on; the
// revision column backs check-and-update.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps a pgx pool as a document store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	const query = `SELECT data, revision FROM documents WHERE collection=$1 AND id=$2`
	var raw []byte
	var revision int64
	if err := s.pool.QueryRow(ctx, query, collection, id).Scan(&raw, &revision); err != nil {
		if noRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return &Document{ID: id, Revision: revision, Fields: fields}, nil
}

func (s *PgStore) Put(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	query := `
        INSERT INTO documents (collection, id, data)
        VALUES ($1,$2,$3)
        ON CONFLICT (collection, id)
        DO UPDATE SET data=EXCLUDED.data, revision=documents.revision+1, updated_at=NOW()`
	if merge {
		query = `
        INSERT INTO documents (collection, id, data)
        VALUES ($1,$2,$3)
        ON CONFLICT (collection, id)
        DO UPDATE SET data=documents.data || EXCLUDED.data, revision=documents.revision+1, updated_at=NOW()`
	}
	_, err = s.pool.Exec(ctx, query, collection, id, raw)
	return err
}

func (s *PgStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	const query = `
        UPDATE documents SET data = data || $3, revision=revision+1, updated_at=NOW()
        WHERE collection=$1 AND id=$2`
	cmd, err := s.pool.Exec(ctx, query, collection, id, raw)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) CheckAndUpdate(ctx context.Context, collection, id string, revision int64, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	const query = `
        UPDATE documents SET data = data || $3, revision=revision+1, updated_at=NOW()
        WHERE collection=$1 AND id=$2 AND revision=$4`
	cmd, err := s.pool.Exec(ctx, query, collection, id, raw, revision)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	// Distinguish a lost race from a missing document.
	const existsQuery = `SELECT 1 FROM documents WHERE collection=$1 AND id=$2`
	var one int
	if err := s.pool.QueryRow(ctx, existsQuery, collection, id).Scan(&one); err != nil {
		if noRows(err) {
			return ErrNotFound
		}
		return err
	}
	return ErrRevisionMismatch
}

func (s *PgStore) Query(ctx context.Context, collection string, conds ...Condition) ([]Document, error) {
	query := `SELECT id, data, revision FROM documents WHERE collection=$1`
	args := []any{collection}
	for _, cond := range conds {
		switch cond.Op {
		case OpEq:
			probe, err := json.Marshal(map[string]any{cond.Field: cond.Value})
			if err != nil {
				return nil, err
			}
			args = append(args, probe)
			query += fmt.Sprintf(" AND data @> $%d::jsonb", len(args))
		default:
			// Range comparisons are textual; range-filtered fields hold
			// ISO-8601 timestamps or zero-padded keys.
			args = append(args, cond.Field)
			fieldArg := len(args)
			args = append(args, fmt.Sprint(cond.Value))
			query += fmt.Sprintf(" AND data->>$%d %s $%d", fieldArg, cond.Op, len(args))
		}
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		var doc Document
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw, &doc.Revision); err != nil {
			return nil, err
		}
		doc.Fields = map[string]any{}
		if err := json.Unmarshal(raw, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode document %s/%s: %w", collection, doc.ID, err)
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (s *PgStore) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection=$1 AND id=$2`
	_, err := s.pool.Exec(ctx, query, collection, id)
	return err
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
