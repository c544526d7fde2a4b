package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentStore provides typed CRUD for documents; the search vector is
// maintained entirely by the database trigger (§3) and never set here.
type DocumentStore struct{}

func (s *DocumentStore) Create(ctx context.Context, tx DBTX, title string, content *string, meta map[string]any, ownerID uuid.UUID) (Document, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return Document{}, fmt.Errorf("marshal meta: %w", err)
	}
	const q = `
		INSERT INTO documents (title, content, meta, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, content, meta, owner_id, created_at, updated_at`
	return scanDocument(tx.QueryRow(ctx, q, title, content, metaJSON, ownerID))
}

func (s *DocumentStore) GetByID(ctx context.Context, tx DBTX, id uuid.UUID) (Document, error) {
	const q = `SELECT id, title, content, meta, owner_id, created_at, updated_at FROM documents WHERE id = $1`
	return scanDocument(tx.QueryRow(ctx, q, id))
}

func (s *DocumentStore) Update(ctx context.Context, tx DBTX, id uuid.UUID, title string, content *string, meta map[string]any) (Document, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return Document{}, fmt.Errorf("marshal meta: %w", err)
	}
	const q = `
		UPDATE documents SET title = $2, content = $3, meta = $4, updated_at = now()
		WHERE id = $1
		RETURNING id, title, content, meta, owner_id, created_at, updated_at`
	return scanDocument(tx.QueryRow(ctx, q, id, title, content, metaJSON))
}

// List returns a page of documents, optionally restricted to a single
// owner, newest first, alongside the total matching count.
func (s *DocumentStore) List(ctx context.Context, tx DBTX, ownerID *uuid.UUID, limit, offset int) ([]Document, int64, error) {
	var total int64
	countQ := `SELECT COUNT(*) FROM documents WHERE ($1::uuid IS NULL OR owner_id = $1)`
	if err := tx.QueryRow(ctx, countQ, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	const q = `
		SELECT id, title, content, meta, owner_id, created_at, updated_at
		FROM documents
		WHERE ($1::uuid IS NULL OR owner_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := tx.Query(ctx, q, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	return docs, total, rows.Err()
}

func (s *DocumentStore) Delete(ctx context.Context, tx DBTX, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	var metaJSON []byte
	err := row.Scan(&d.ID, &d.Title, &d.Content, &metaJSON, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("scan document: %w", err)
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &d.Meta); err != nil {
			return Document{}, fmt.Errorf("unmarshal meta: %w", err)
		}
	}
	return d, nil
}
