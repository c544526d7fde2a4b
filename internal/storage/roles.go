package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoleStore provides typed CRUD for roles and their permission/user
// associations.
type RoleStore struct{}

func (s *RoleStore) Create(ctx context.Context, tx DBTX, name string, description *string, isSystem bool) (Role, error) {
	const q = `
		INSERT INTO roles (name, description, is_system)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, is_system, created_at, updated_at`
	return scanRole(tx.QueryRow(ctx, q, name, description, isSystem))
}

// GetOrCreateByName is the idempotent seeding primitive used by bootstrap.
func (s *RoleStore) GetOrCreateByName(ctx context.Context, tx DBTX, name string, description *string, isSystem bool) (Role, error) {
	role, err := s.GetByName(ctx, tx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Role{}, err
	}
	return s.Create(ctx, tx, name, description, isSystem)
}

func (s *RoleStore) GetByID(ctx context.Context, tx DBTX, id uuid.UUID) (Role, error) {
	const q = `SELECT id, name, description, is_system, created_at, updated_at FROM roles WHERE id = $1`
	return scanRole(tx.QueryRow(ctx, q, id))
}

func (s *RoleStore) GetByName(ctx context.Context, tx DBTX, name string) (Role, error) {
	const q = `SELECT id, name, description, is_system, created_at, updated_at FROM roles WHERE name = $1`
	return scanRole(tx.QueryRow(ctx, q, name))
}

func (s *RoleStore) List(ctx context.Context, tx DBTX) ([]Role, error) {
	const q = `SELECT id, name, description, is_system, created_at, updated_at FROM roles ORDER BY name`
	rows, err := tx.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// Update changes name/description. Callers must pre-check name collisions
// for is_system roles per the "may not be renamed-in-place if colliding"
// invariant.
func (s *RoleStore) Update(ctx context.Context, tx DBTX, id uuid.UUID, name string, description *string) (Role, error) {
	const q = `
		UPDATE roles SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, is_system, created_at, updated_at`
	return scanRole(tx.QueryRow(ctx, q, id, name, description))
}

// Delete removes a role, cascading through role_permissions/user_roles.
// Callers must reject is_system roles before calling (DomainRefusal).
func (s *RoleStore) Delete(ctx context.Context, tx DBTX, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RoleStore) AttachPermissions(ctx context.Context, tx DBTX, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	const q = `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`
	_, err := tx.Exec(ctx, q, roleID, permissionIDs)
	if err != nil {
		return fmt.Errorf("attach permissions: %w", err)
	}
	return nil
}

func (s *RoleStore) DetachPermission(ctx context.Context, tx DBTX, roleID, permissionID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("detach permission: %w", err)
	}
	return nil
}

func (s *RoleStore) ListPermissions(ctx context.Context, tx DBTX, roleID uuid.UUID) ([]Permission, error) {
	const q = `
		SELECT p.id, p.resource, p.action, p.scope, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1`
	rows, err := tx.Query(ctx, q, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
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

// ListUserIDsHoldingRole enumerates every user holding a role, used to
// invalidate per-user RBAC cache entries when the role's permission set,
// name, or description changes.
func (s *RoleStore) ListUserIDsHoldingRole(ctx context.Context, tx DBTX, roleID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `SELECT user_id FROM user_roles WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role holders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *RoleStore) AssignToUser(ctx context.Context, tx DBTX, userID, roleID uuid.UUID, assignedBy *uuid.UUID) error {
	const q = `
		INSERT INTO user_roles (user_id, role_id, assigned_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, role_id) DO NOTHING`
	_, err := tx.Exec(ctx, q, userID, roleID, assignedBy)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (s *RoleStore) RemoveFromUser(ctx context.Context, tx DBTX, userID, roleID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

// ListForUser loads a user's held roles with one query.
func (s *RoleStore) ListForUser(ctx context.Context, tx DBTX, userID uuid.UUID) ([]Role, error) {
	const q = `
		SELECT r.id, r.name, r.description, r.is_system, r.created_at, r.updated_at
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1`
	rows, err := tx.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// ListPermissionsForUser loads the union of permissions across every role
// a user holds with a single three-way join, rather than one query per
// held role.
func (s *RoleStore) ListPermissionsForUser(ctx context.Context, tx DBTX, userID uuid.UUID) ([]Permission, error) {
	const q = `
		SELECT DISTINCT p.id, p.resource, p.action, p.scope, p.description
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1`
	rows, err := tx.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list user permissions: %w", err)
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

func scanRole(row rowScanner) (Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, fmt.Errorf("scan role: %w", err)
	}
	return r, nil
}
