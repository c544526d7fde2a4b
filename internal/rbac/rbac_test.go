package rbac

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genes8/docuguard/internal/cache"
	"github.com/genes8/docuguard/internal/storage"
)

// newTestEvaluator builds an Evaluator with no store/pool, valid only for
// exercising the cache-hit paths: every test here pre-populates the cache
// so GetUserPermissions/GetUserRoles never fall through to the store.
func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.New(context.Background(), cache.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return New(nil, nil, c)
}

func TestHasPermission_CacheHit(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()
	userID := uuid.New()

	views := []PermissionView{
		{ID: uuid.New(), Resource: "documents", Action: "read", Scope: storage.ScopeAll},
	}
	require.NoError(t, e.cache.SetJSON(ctx, permissionsCacheKey(userID), views, CacheTTL))

	ok, err := e.HasPermission(ctx, userID, "documents", "read", storage.ScopeOwn)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.HasPermission(ctx, userID, "documents", "delete", storage.ScopeOwn)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasAnyPermission_CacheHit(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()
	userID := uuid.New()

	views := []PermissionView{
		{ID: uuid.New(), Resource: "documents", Action: "read", Scope: storage.ScopeOwn},
	}
	require.NoError(t, e.cache.SetJSON(ctx, permissionsCacheKey(userID), views, CacheTTL))

	ok, err := e.HasAnyPermission(ctx, userID, []Triple{
		{Resource: "roles", Action: "read", Scope: storage.ScopeAll},
		{Resource: "documents", Action: "read", Scope: storage.ScopeOwn},
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasAllPermissions_CacheHit(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()
	userID := uuid.New()

	views := []PermissionView{
		{ID: uuid.New(), Resource: "documents", Action: "read", Scope: storage.ScopeAll},
	}
	require.NoError(t, e.cache.SetJSON(ctx, permissionsCacheKey(userID), views, CacheTTL))

	ok, err := e.HasAllPermissions(ctx, userID, []Triple{
		{Resource: "documents", Action: "read", Scope: storage.ScopeOwn},
		{Resource: "documents", Action: "delete", Scope: storage.ScopeOwn},
	})
	require.NoError(t, err)
	assert.False(t, ok, "must fail when any one triple is unmet")
}

func TestHasRole_CacheHit(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()
	userID := uuid.New()

	roles := []RoleView{{ID: uuid.New(), Name: "Admin", IsSystem: true}}
	require.NoError(t, e.cache.SetJSON(ctx, rolesCacheKey(userID), roles, CacheTTL))

	ok, err := e.HasRole(ctx, userID, "Admin")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.HasRole(ctx, userID, "User")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasAnyRole_CacheHit(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()
	userID := uuid.New()

	roles := []RoleView{{ID: uuid.New(), Name: "Manager"}}
	require.NoError(t, e.cache.SetJSON(ctx, rolesCacheKey(userID), roles, CacheTTL))

	ok, err := e.HasAnyRole(ctx, userID, []string{"Admin", "Manager"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.HasAnyRole(ctx, userID, []string{"Admin"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateUser(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, e.cache.SetJSON(ctx, permissionsCacheKey(userID), []PermissionView{}, CacheTTL))
	require.NoError(t, e.cache.SetJSON(ctx, rolesCacheKey(userID), []RoleView{}, CacheTTL))

	e.InvalidateUser(ctx, userID)

	assert.False(t, e.cache.Exists(ctx, permissionsCacheKey(userID)))
	assert.False(t, e.cache.Exists(ctx, rolesCacheKey(userID)))
}

func TestInvalidateAll(t *testing.T) {
	e := newTestEvaluator(t)
	ctx := context.Background()
	userA, userB := uuid.New(), uuid.New()

	require.NoError(t, e.cache.SetJSON(ctx, permissionsCacheKey(userA), []PermissionView{}, CacheTTL))
	require.NoError(t, e.cache.SetJSON(ctx, rolesCacheKey(userB), []RoleView{}, CacheTTL))

	e.InvalidateAll(ctx)

	assert.False(t, e.cache.Exists(ctx, permissionsCacheKey(userA)))
	assert.False(t, e.cache.Exists(ctx, rolesCacheKey(userB)))
}
