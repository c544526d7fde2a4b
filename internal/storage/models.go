// Package storage implements the persistent store adapter (component A):
// typed CRUD plus a transactional unit of work over the relational tables
// in the data model.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// AuthProvider enumerates how a user authenticates.
type AuthProvider string

const (
	ProviderLocal     AuthProvider = "local"
	ProviderOIDC      AuthProvider = "oidc"
	ProviderGoogle    AuthProvider = "google"
	ProviderMicrosoft AuthProvider = "microsoft"
)

// Scope is the visibility tier of a permission, totally ordered
// own < team < all.
type Scope string

const (
	ScopeOwn  Scope = "own"
	ScopeTeam Scope = "team"
	ScopeAll  Scope = "all"
)

// Rank returns the position of a scope in the own < team < all order.
func (s Scope) Rank() int {
	switch s {
	case ScopeOwn:
		return 1
	case ScopeTeam:
		return 2
	case ScopeAll:
		return 3
	default:
		return 0
	}
}

// AuditAction enumerates the RBAC mutations an AuditLog row can record.
type AuditAction string

const (
	ActionRoleAssigned       AuditAction = "role_assigned"
	ActionRoleRemoved        AuditAction = "role_removed"
	ActionRoleCreated        AuditAction = "role_created"
	ActionRoleUpdated        AuditAction = "role_updated"
	ActionRoleDeleted        AuditAction = "role_deleted"
	ActionPermissionAssigned AuditAction = "permission_assigned"
	ActionPermissionRemoved  AuditAction = "permission_removed"
)

// User is a registered account, local or federated.
type User struct {
	ID            uuid.UUID
	Email         string
	Username      string
	PasswordHash  *string
	AuthProvider  AuthProvider
	OIDCSubject   *string
	OIDCIssuer    *string
	IsActive      bool
	IsVerified    bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Role is a named bundle of permissions.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description *string
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission is the closed triple (resource, action, scope).
type Permission struct {
	ID          uuid.UUID
	Resource    string
	Action      string
	Scope       Scope
	Description *string
}

// Satisfies reports whether p grants a request for (resource, action, scope).
func (p Permission) Satisfies(resource, action string, scope Scope) bool {
	resourceOK := p.Resource == resource || p.Resource == "*"
	actionOK := p.Action == action || p.Action == "*"
	return resourceOK && actionOK && p.Scope.Rank() >= scope.Rank()
}

// AuditLog is an append-only record of an RBAC mutation.
type AuditLog struct {
	ID          uuid.UUID
	Action      AuditAction
	EntityType  string
	EntityID    uuid.UUID
	ActorUserID uuid.UUID
	TargetUserID *uuid.UUID
	RoleID      *uuid.UUID
	Details     map[string]any
	IPAddress   *string
	UserAgent   *string
	CreatedAt   time.Time
}

// Document is an owned, searchable record.
type Document struct {
	ID        uuid.UUID
	Title     string
	Content   *string
	Meta      map[string]any
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRole associates a user with a role.
type UserRole struct {
	UserID     uuid.UUID
	RoleID     uuid.UUID
	AssignedAt time.Time
	AssignedBy *uuid.UUID
}
