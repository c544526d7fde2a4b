package bootstrap

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/genes8/docuguard/internal/storage"
)

func TestTripleKey(t *testing.T) {
	assert.Equal(t, "documents:read:own", tripleKey("documents", "read", storage.ScopeOwn))
}

func TestExpandPattern_ExactMatch(t *testing.T) {
	catalogue := []storage.Permission{
		{ID: uuid.New(), Resource: "documents", Action: "read", Scope: storage.ScopeOwn},
		{ID: uuid.New(), Resource: "documents", Action: "delete", Scope: storage.ScopeOwn},
	}

	matched := expandPattern(rolePattern{Resource: "documents", Action: "read", Scope: storage.ScopeOwn}, catalogue)
	assert.Len(t, matched, 1)
	assert.Equal(t, "read", matched[0].Action)
}

func TestExpandPattern_WildcardAction(t *testing.T) {
	catalogue := []storage.Permission{
		{ID: uuid.New(), Resource: "users", Action: "create", Scope: storage.ScopeAll},
		{ID: uuid.New(), Resource: "users", Action: "delete", Scope: storage.ScopeAll},
		{ID: uuid.New(), Resource: "roles", Action: "create", Scope: storage.ScopeAll},
	}

	matched := expandPattern(rolePattern{Resource: "users", Action: "*", Scope: storage.ScopeAll}, catalogue)
	assert.Len(t, matched, 2)
	for _, p := range matched {
		assert.Equal(t, "users", p.Resource)
	}
}

func TestExpandPattern_WildcardResourceAndAction(t *testing.T) {
	catalogue := []storage.Permission{
		{ID: uuid.New(), Resource: "users", Action: "create", Scope: storage.ScopeAll},
		{ID: uuid.New(), Resource: "system", Action: "*", Scope: storage.ScopeAll},
		{ID: uuid.New(), Resource: "documents", Action: "read", Scope: storage.ScopeOwn},
	}

	matched := expandPattern(rolePattern{Resource: "*", Action: "*", Scope: storage.ScopeAll}, catalogue)
	assert.Len(t, matched, 3, "an all-scope ceiling must also cover narrower-scoped permissions")
}

func TestExpandPattern_ScopeIsACeilingNotAnExactMatch(t *testing.T) {
	catalogue := []storage.Permission{
		{ID: uuid.New(), Resource: "documents", Action: "create", Scope: storage.ScopeOwn},
		{ID: uuid.New(), Resource: "documents", Action: "create", Scope: storage.ScopeTeam},
		{ID: uuid.New(), Resource: "documents", Action: "create", Scope: storage.ScopeAll},
	}

	matched := expandPattern(rolePattern{Resource: "documents", Action: "create", Scope: storage.ScopeTeam}, catalogue)
	assert.Len(t, matched, 2, "a team-scope pattern must also grant the narrower own-scope permission")
	for _, p := range matched {
		assert.NotEqual(t, storage.ScopeAll, p.Scope, "a team-scope pattern must not grant the broader all-scope permission")
	}
}

func TestRoleSeeds_CoverFiveSystemRoles(t *testing.T) {
	names := make(map[string]bool, len(roleSeeds))
	for _, rs := range roleSeeds {
		names[rs.Name] = true
		assert.NotEmpty(t, rs.Patterns, "%s must seed at least one permission pattern", rs.Name)
	}
	for _, want := range []string{"Super Admin", "Admin", "Manager", "User", "Viewer"} {
		assert.True(t, names[want], "missing system role %q", want)
	}
}

func TestCatalogue_NoDuplicateTriples(t *testing.T) {
	seen := make(map[string]bool, len(catalogue))
	for _, p := range catalogue {
		key := tripleKey(p.Resource, p.Action, p.Scope)
		assert.False(t, seen[key], "duplicate permission triple %q", key)
		seen[key] = true
	}
}
