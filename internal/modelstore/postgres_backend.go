package modelstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"aioep/internal/archimate"
)

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS strategy_models (
  id TEXT PRIMARY KEY,
  doc JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_strategy_models_created_at ON strategy_models (created_at DESC);
`)
	})
	return s.schemaErr
}

func (s *Store) putDB(ctx context.Context, id string, doc archimate.Document) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO strategy_models (id, doc, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		id, b, doc.Metadata.CreatedAt)
	return err
}

func (s *Store) getDB(ctx context.Context, id string) (archimate.Document, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return archimate.Document{}, err
	}
	var b []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM strategy_models WHERE id = $1`, id).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return archimate.Document{}, ErrNotFound
	}
	if err != nil {
		return archimate.Document{}, err
	}
	var doc archimate.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return archimate.Document{}, err
	}
	return doc, nil
}

func (s *Store) listDB(ctx context.Context) ([]Summary, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc FROM strategy_models ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0, 32)
	for rows.Next() {
		var id string
		var b []byte
		if err := rows.Scan(&id, &b); err != nil {
			continue
		}
		var doc archimate.Document
		if err := json.Unmarshal(b, &doc); err != nil {
			out = append(out, Summary{ID: id, Name: id, Status: "error"})
			continue
		}
		out = append(out, summarize(id, doc))
	}
	return out, rows.Err()
}
