// Package rbac implements the cache-backed permission evaluator
// (component H): has_permission, has_any_permission, has_all_permissions,
// has_role, has_any_role, plus the invalidation contract that keeps the
// cache a pure derived view over the store.
package rbac

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genes8/docuguard/internal/cache"
	"github.com/genes8/docuguard/internal/storage"
)

// CacheTTL is how long a user's permission/role snapshot stays cached.
const CacheTTL = 300 * time.Second

// PermissionView is the cached projection of a permission row.
type PermissionView struct {
	ID       uuid.UUID      `json:"id"`
	Resource string         `json:"resource"`
	Action   string         `json:"action"`
	Scope    storage.Scope  `json:"scope"`
}

// RoleView is the cached projection of a role row.
type RoleView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsSystem    bool      `json:"is_system"`
}

// Triple identifies one permission requirement.
type Triple struct {
	Resource string
	Action   string
	Scope    storage.Scope
}

// Evaluator answers permission/role questions, backed by a per-user cache
// that is invalidated whenever the underlying grant changes.
type Evaluator struct {
	pool  *pgxpool.Pool
	store *storage.Store
	cache *cache.Client
}

// New wires an evaluator against the pool, store, and cache.
func New(pool *pgxpool.Pool, store *storage.Store, c *cache.Client) *Evaluator {
	return &Evaluator{pool: pool, store: store, cache: c}
}

func permissionsCacheKey(userID uuid.UUID) string {
	return cache.Key("rbac", userID.String(), "permissions")
}

func rolesCacheKey(userID uuid.UUID) string {
	return cache.Key("rbac", userID.String(), "roles")
}

// GetUserPermissions returns the union of permissions across every role
// the user holds, serving from cache when present.
func (e *Evaluator) GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]PermissionView, error) {
	var cached []PermissionView
	if e.cache.GetJSON(ctx, permissionsCacheKey(userID), &cached) {
		return cached, nil
	}

	perms, err := e.store.Roles.ListPermissionsForUser(ctx, e.pool, userID)
	if err != nil {
		return nil, err
	}

	views := make([]PermissionView, 0, len(perms))
	for _, p := range perms {
		views = append(views, PermissionView{ID: p.ID, Resource: p.Resource, Action: p.Action, Scope: p.Scope})
	}

	_ = e.cache.SetJSON(ctx, permissionsCacheKey(userID), views, CacheTTL)
	return views, nil
}

// GetUserRoles returns the roles held by a user, serving from cache when
// present.
func (e *Evaluator) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]RoleView, error) {
	var cached []RoleView
	if e.cache.GetJSON(ctx, rolesCacheKey(userID), &cached) {
		return cached, nil
	}

	roles, err := e.store.Roles.ListForUser(ctx, e.pool, userID)
	if err != nil {
		return nil, err
	}

	views := make([]RoleView, 0, len(roles))
	for _, r := range roles {
		views = append(views, RoleView{ID: r.ID, Name: r.Name, Description: r.Description, IsSystem: r.IsSystem})
	}

	_ = e.cache.SetJSON(ctx, rolesCacheKey(userID), views, CacheTTL)
	return views, nil
}

// HasPermission reports whether userID holds a permission satisfying
// (resource, action, scope) via wildcard/hierarchy matching.
func (e *Evaluator) HasPermission(ctx context.Context, userID uuid.UUID, resource, action string, scope storage.Scope) (bool, error) {
	perms, err := e.GetUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		full := storage.Permission{Resource: p.Resource, Action: p.Action, Scope: p.Scope}
		if full.Satisfies(resource, action, scope) {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyPermission reports whether userID holds at least one of triples.
func (e *Evaluator) HasAnyPermission(ctx context.Context, userID uuid.UUID, triples []Triple) (bool, error) {
	for _, t := range triples {
		ok, err := e.HasPermission(ctx, userID, t.Resource, t.Action, t.Scope)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions reports whether userID holds every one of triples.
func (e *Evaluator) HasAllPermissions(ctx context.Context, userID uuid.UUID, triples []Triple) (bool, error) {
	for _, t := range triples {
		ok, err := e.HasPermission(ctx, userID, t.Resource, t.Action, t.Scope)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// HasRole reports whether userID holds roleName.
func (e *Evaluator) HasRole(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	roles, err := e.GetUserRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyRole reports whether userID holds any of roleNames.
func (e *Evaluator) HasAnyRole(ctx context.Context, userID uuid.UUID, roleNames []string) (bool, error) {
	wanted := make(map[string]struct{}, len(roleNames))
	for _, n := range roleNames {
		wanted[n] = struct{}{}
	}
	roles, err := e.GetUserRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if _, ok := wanted[r.Name]; ok {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateUser drops both cache entries for a single user — the only
// invalidation needed when a user's role assignment changes.
func (e *Evaluator) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	e.cache.Delete(ctx, permissionsCacheKey(userID))
	e.cache.Delete(ctx, rolesCacheKey(userID))
}

// InvalidateRole invalidates every user holding roleID — required
// whenever a role's permission set, name, or description changes, or the
// role is deleted.
func (e *Evaluator) InvalidateRole(ctx context.Context, roleID uuid.UUID) error {
	userIDs, err := e.store.Roles.ListUserIDsHoldingRole(ctx, e.pool, roleID)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		e.InvalidateUser(ctx, id)
	}
	return nil
}

// InvalidateAll drops every cached RBAC entry, used when a permission
// itself is modified directly (its effect on holders cannot be enumerated
// cheaply, so the whole namespace is cleared).
func (e *Evaluator) InvalidateAll(ctx context.Context) {
	e.cache.DeleteByPrefix(ctx, "cache:rbac:")
}
