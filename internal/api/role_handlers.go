package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/api/helpers"
	"github.com/genes8/docuguard/internal/audit"
	"github.com/genes8/docuguard/internal/gate"
	"github.com/genes8/docuguard/internal/storage"
)

// ListRoles returns every role in the system.
func (s *Server) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.Store.Roles.List(r.Context(), s.Pool)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not list roles")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, roles)
}

type createRoleRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CreateRole creates a new (non-system) role.
func (s *Server) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || req.Name == "" {
		helpers.RespondError(w, http.StatusBadRequest, "role name is required")
		return
	}

	actorID, _ := gate.UserID(r.Context())
	var role storage.Role
	err := s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		var txErr error
		role, txErr = s.Store.Roles.Create(r.Context(), tx, req.Name, req.Description, false)
		if txErr != nil {
			return txErr
		}
		return s.Audit.Write(r.Context(), tx, audit.Record{
			Action: storage.ActionRoleCreated, EntityType: "role", EntityID: role.ID, ActorUserID: actorID,
		})
	})
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "role already exists or is invalid")
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, role)
}

func roleIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// GetRole reads a single role.
func (s *Server) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	role, err := s.Store.Roles.GetByID(r.Context(), s.Pool, id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "role not found")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, role)
}

// UpdateRole changes a role's name/description, then invalidates the RBAC
// cache for every user holding it.
func (s *Server) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	var req createRoleRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || req.Name == "" {
		helpers.RespondError(w, http.StatusBadRequest, "role name is required")
		return
	}

	existing, err := s.Store.Roles.GetByID(r.Context(), s.Pool, id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "role not found")
		return
	}
	if existing.IsSystem {
		helpers.RespondError(w, http.StatusBadRequest, "system roles cannot be modified")
		return
	}

	actorID, _ := gate.UserID(r.Context())
	var role storage.Role
	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		var txErr error
		role, txErr = s.Store.Roles.Update(r.Context(), tx, id, req.Name, req.Description)
		if txErr != nil {
			return txErr
		}
		return s.Audit.Write(r.Context(), tx, audit.Record{
			Action: storage.ActionRoleUpdated, EntityType: "role", EntityID: id, ActorUserID: actorID,
		})
	})
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "could not update role")
		return
	}
	_ = s.RBAC.InvalidateRole(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, role)
}

// DeleteRole removes a non-system role and invalidates its holders' cache
// before the delete so the invalidation can still enumerate them.
func (s *Server) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	existing, err := s.Store.Roles.GetByID(r.Context(), s.Pool, id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "role not found")
		return
	}
	if existing.IsSystem {
		helpers.RespondError(w, http.StatusBadRequest, "system roles cannot be deleted")
		return
	}

	_ = s.RBAC.InvalidateRole(r.Context(), id)

	actorID, _ := gate.UserID(r.Context())
	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		if txErr := s.Store.Roles.Delete(r.Context(), tx, id); txErr != nil {
			return txErr
		}
		return s.Audit.Write(r.Context(), tx, audit.Record{
			Action: storage.ActionRoleDeleted, EntityType: "role", EntityID: id, ActorUserID: actorID,
		})
	})
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not delete role")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type attachPermissionsRequest struct {
	PermissionIDs []uuid.UUID `json:"permission_ids"`
}

// AttachRolePermissions adds permissions to a role and invalidates every
// holder's cache.
func (s *Server) AttachRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	var req attachPermissionsRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || len(req.PermissionIDs) == 0 {
		helpers.RespondError(w, http.StatusBadRequest, "permission_ids required")
		return
	}

	actorID, _ := gate.UserID(r.Context())
	err := s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		if txErr := s.Store.Roles.AttachPermissions(r.Context(), tx, id, req.PermissionIDs); txErr != nil {
			return txErr
		}
		for _, pid := range req.PermissionIDs {
			if txErr := s.Audit.Write(r.Context(), tx, audit.Record{
				Action: storage.ActionPermissionAssigned, EntityType: "role_permission", EntityID: pid,
				ActorUserID: actorID, RoleID: &id,
			}); txErr != nil {
				return txErr
			}
		}
		return nil
	})
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "could not attach permissions")
		return
	}
	_ = s.RBAC.InvalidateRole(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "attached"})
}

// DetachRolePermission removes a permission from a role and invalidates
// every holder's cache.
func (s *Server) DetachRolePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	pid, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid permission id")
		return
	}

	actorID, _ := gate.UserID(r.Context())
	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		if txErr := s.Store.Roles.DetachPermission(r.Context(), tx, id, pid); txErr != nil {
			return txErr
		}
		return s.Audit.Write(r.Context(), tx, audit.Record{
			Action: storage.ActionPermissionRemoved, EntityType: "role_permission", EntityID: pid,
			ActorUserID: actorID, RoleID: &id,
		})
	})
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not detach permission")
		return
	}
	_ = s.RBAC.InvalidateRole(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "detached"})
}

// ListPermissions returns the full seeded permission catalogue.
func (s *Server) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := s.Store.Permissions.List(r.Context(), s.Pool)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not list permissions")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, perms)
}

// ListUsers returns a page of users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagingParams(r)
	users, total, err := s.Store.Users.List(r.Context(), s.Pool, limit, offset)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not list users")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]any{"items": users, "total": total})
}

func pagingParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return
}

func userIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	return id, err == nil
}

// ListUserRoles returns the roles a user holds.
func (s *Server) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	roles, err := s.Store.Roles.ListForUser(r.Context(), s.Pool, id)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not list user roles")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, roles)
}

type assignRoleRequest struct {
	RoleID uuid.UUID `json:"role_id"`
}

// AssignUserRole grants a role to a user and invalidates that user's
// cache — the only invalidation needed for an assignment/removal.
func (s *Server) AssignUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req assignRoleRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || req.RoleID == uuid.Nil {
		helpers.RespondError(w, http.StatusBadRequest, "role_id required")
		return
	}

	actorID, _ := gate.UserID(r.Context())
	err := s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		if txErr := s.Store.Roles.AssignToUser(r.Context(), tx, id, req.RoleID, &actorID); txErr != nil {
			return txErr
		}
		return s.Audit.Write(r.Context(), tx, audit.Record{
			Action: storage.ActionRoleAssigned, EntityType: "user_role", EntityID: req.RoleID,
			ActorUserID: actorID, TargetUserID: &id, RoleID: &req.RoleID,
		})
	})
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "could not assign role")
		return
	}
	s.RBAC.InvalidateUser(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

// RemoveUserRole revokes a role from a user and invalidates that user's
// cache.
func (s *Server) RemoveUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	rid, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	actorID, _ := gate.UserID(r.Context())
	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		if txErr := s.Store.Roles.RemoveFromUser(r.Context(), tx, id, rid); txErr != nil {
			return txErr
		}
		return s.Audit.Write(r.Context(), tx, audit.Record{
			Action: storage.ActionRoleRemoved, EntityType: "user_role", EntityID: rid,
			ActorUserID: actorID, TargetUserID: &id, RoleID: &rid,
		})
	})
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not remove role")
		return
	}
	s.RBAC.InvalidateUser(r.Context(), id)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type bulkAssignRequest struct {
	UserIDs []uuid.UUID `json:"user_ids"`
	RoleID  uuid.UUID   `json:"role_id"`
}

// BulkAssignRole assigns one role to many users in a single request,
// invalidating each affected user's cache.
func (s *Server) BulkAssignRole(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || req.RoleID == uuid.Nil || len(req.UserIDs) == 0 {
		helpers.RespondError(w, http.StatusBadRequest, "user_ids and role_id required")
		return
	}

	actorID, _ := gate.UserID(r.Context())
	err := s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		for _, uid := range req.UserIDs {
			if txErr := s.Store.Roles.AssignToUser(r.Context(), tx, uid, req.RoleID, &actorID); txErr != nil {
				return txErr
			}
			if txErr := s.Audit.Write(r.Context(), tx, audit.Record{
				Action: storage.ActionRoleAssigned, EntityType: "user_role", EntityID: req.RoleID,
				ActorUserID: actorID, TargetUserID: &uid, RoleID: &req.RoleID,
			}); txErr != nil {
				return txErr
			}
		}
		return nil
	})
	if err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "bulk assignment failed")
		return
	}
	for _, uid := range req.UserIDs {
		s.RBAC.InvalidateUser(r.Context(), uid)
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}
