package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PermissionStore provides typed CRUD for the permission catalogue.
type PermissionStore struct{}

// GetOrCreate is the idempotent seeding primitive: the (resource, action,
// scope) triple is unique, so a repeat bootstrap run is a no-op.
func (s *PermissionStore) GetOrCreate(ctx context.Context, tx DBTX, resource, action string, scope Scope, description *string) (Permission, error) {
	const q = `
		INSERT INTO permissions (resource, action, scope, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (resource, action, scope) DO UPDATE SET resource = EXCLUDED.resource
		RETURNING id, resource, action, scope, description`
	return scanPermission(tx.QueryRow(ctx, q, resource, action, scope, description))
}

func (s *PermissionStore) GetByTriple(ctx context.Context, tx DBTX, resource, action string, scope Scope) (Permission, error) {
	const q = `SELECT id, resource, action, scope, description FROM permissions WHERE resource = $1 AND action = $2 AND scope = $3`
	return scanPermission(tx.QueryRow(ctx, q, resource, action, scope))
}

func (s *PermissionStore) GetByID(ctx context.Context, tx DBTX, id uuid.UUID) (Permission, error) {
	const q = `SELECT id, resource, action, scope, description FROM permissions WHERE id = $1`
	return scanPermission(tx.QueryRow(ctx, q, id))
}

func (s *PermissionStore) List(ctx context.Context, tx DBTX) ([]Permission, error) {
	const q = `SELECT id, resource, action, scope, description FROM permissions ORDER BY resource, action, scope`
	rows, err := tx.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ListByResource returns every permission for a resource, ordered by
// action then scope.
func (s *PermissionStore) ListByResource(ctx context.Context, tx DBTX, resource string) ([]Permission, error) {
	const q = `SELECT id, resource, action, scope, description FROM permissions WHERE resource = $1 ORDER BY action, scope`
	rows, err := tx.Query(ctx, q, resource)
	if err != nil {
		return nil, fmt.Errorf("list permissions by resource: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func scanPermission(row rowScanner) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Resource, &p.Action, &p.Scope, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, fmt.Errorf("scan permission: %w", err)
	}
	return p, nil
}
