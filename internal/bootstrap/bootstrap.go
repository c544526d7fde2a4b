// Package bootstrap performs the idempotent startup seeding (component L):
// the fixed permission catalogue, the five system roles, and the
// super-admin account.
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/credentials"
	"github.com/genes8/docuguard/internal/storage"
)

// Options configures the super-admin seeding step.
type Options struct {
	SuperAdminEmail    string
	SuperAdminPassword string
}

// Run seeds the permission catalogue, the system roles, and (if
// configured) the super-admin user. It is safe to call on every process
// start: every step is an idempotent upsert.
func Run(ctx context.Context, store *storage.Store, hasher *credentials.Hasher, opts Options, logger *slog.Logger) error {
	return store.WithTx(ctx, func(tx storage.DBTX) error {
		permByTriple, err := seedPermissions(ctx, tx, store)
		if err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}

		if err := seedRoles(ctx, tx, store, permByTriple); err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}

		if opts.SuperAdminEmail != "" {
			if err := seedSuperAdmin(ctx, tx, store, hasher, opts, logger); err != nil {
				return fmt.Errorf("seed super admin: %w", err)
			}
		}
		return nil
	})
}

func tripleKey(resource, action string, scope storage.Scope) string {
	return resource + ":" + action + ":" + string(scope)
}

func seedPermissions(ctx context.Context, tx storage.DBTX, store *storage.Store) (map[string]storage.Permission, error) {
	result := make(map[string]storage.Permission, len(catalogue))
	for _, p := range catalogue {
		desc := p.Description
		perm, err := store.Permissions.GetOrCreate(ctx, tx, p.Resource, p.Action, p.Scope, &desc)
		if err != nil {
			return nil, err
		}
		result[tripleKey(p.Resource, p.Action, p.Scope)] = perm
	}
	return result, nil
}

// expandPattern resolves a (resource, action, scope) seed pattern —
// possibly containing wildcards — into the concrete permissions it
// covers, using the already-seeded catalogue as the closed universe.
//
// pattern.Scope is a ceiling, not an exact match: a role granted at
// scope X also holds every narrower-scoped permission for the same
// resource/action, since some resources (documents, labels,
// watch_folders) only define a narrow-scope entry for certain actions
// (e.g. "create" is own-scoped only) and a broader role must still be
// able to perform them.
func expandPattern(pattern rolePattern, catalogue []storage.Permission) []storage.Permission {
	var matched []storage.Permission
	for _, p := range catalogue {
		resourceOK := pattern.Resource == "*" || p.Resource == pattern.Resource
		actionOK := pattern.Action == "*" || p.Action == pattern.Action
		scopeOK := p.Scope.Rank() <= pattern.Scope.Rank()
		if resourceOK && actionOK && scopeOK {
			matched = append(matched, p)
		}
	}
	return matched
}

func seedRoles(ctx context.Context, tx storage.DBTX, store *storage.Store, permByTriple map[string]storage.Permission) error {
	allPerms := make([]storage.Permission, 0, len(permByTriple))
	for _, p := range permByTriple {
		allPerms = append(allPerms, p)
	}

	for _, rs := range roleSeeds {
		desc := rs.Description
		role, err := store.Roles.GetOrCreateByName(ctx, tx, rs.Name, &desc, true)
		if err != nil {
			return err
		}

		seen := make(map[uuid.UUID]struct{})
		var ids []uuid.UUID
		for _, pattern := range rs.Patterns {
			for _, p := range expandPattern(pattern, allPerms) {
				if _, ok := seen[p.ID]; ok {
					continue
				}
				seen[p.ID] = struct{}{}
				ids = append(ids, p.ID)
			}
		}

		if len(ids) > 0 {
			if err := store.Roles.AttachPermissions(ctx, tx, role.ID, ids); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedSuperAdmin(ctx context.Context, tx storage.DBTX, store *storage.Store, hasher *credentials.Hasher, opts Options, logger *slog.Logger) error {
	existing, err := store.Users.GetByEmail(ctx, tx, opts.SuperAdminEmail)
	if err == nil {
		return ensureSuperAdminRole(ctx, tx, store, existing.ID)
	}
	if err != storage.ErrNotFound {
		return err
	}

	password := opts.SuperAdminPassword
	if password == "" {
		generated, genErr := generatePassword()
		if genErr != nil {
			return genErr
		}
		password = generated
		logger.Warn("generated super admin password; record it now, it will not be shown again",
			slog.String("email", opts.SuperAdminEmail))
		fmt.Printf("Super admin password for %s: %s\n", opts.SuperAdminEmail, password)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	user, err := store.Users.Create(ctx, tx, storage.CreateUserParams{
		Email:        opts.SuperAdminEmail,
		Username:     "superadmin",
		PasswordHash: &hash,
		AuthProvider: storage.ProviderLocal,
		IsVerified:   true,
	})
	if err != nil {
		return err
	}

	return ensureSuperAdminRole(ctx, tx, store, user.ID)
}

func ensureSuperAdminRole(ctx context.Context, tx storage.DBTX, store *storage.Store, userID uuid.UUID) error {
	role, err := store.Roles.GetByName(ctx, tx, "Super Admin")
	if err != nil {
		return err
	}
	return store.Roles.AssignToUser(ctx, tx, userID, role.ID, nil)
}

func generatePassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
