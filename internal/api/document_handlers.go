package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/api/helpers"
	"github.com/genes8/docuguard/internal/gate"
	"github.com/genes8/docuguard/internal/storage"
)

type documentRequest struct {
	Title   string         `json:"title"`
	Content *string        `json:"content"`
	Meta    map[string]any `json:"meta"`
}

type documentPayload struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Content   *string        `json:"content"`
	Meta      map[string]any `json:"meta"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

func documentResponse(d storage.Document) documentPayload {
	return documentPayload{
		ID: d.ID, Title: d.Title, Content: d.Content, Meta: d.Meta, OwnerID: d.OwnerID,
		CreatedAt: d.CreatedAt.Format(timeLayout), UpdatedAt: d.UpdatedAt.Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// CreateDocument always creates with the caller as owner; the create
// permission only ever exists at own scope.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req documentRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || req.Title == "" {
		helpers.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}

	var doc storage.Document
	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		var txErr error
		doc, txErr = s.Store.Documents.Create(r.Context(), tx, req.Title, req.Content, req.Meta, userID)
		return txErr
	})
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not create document")
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, documentResponse(doc))
}

func documentIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// documentScopeFor returns the scope a caller holds relative to a document:
// own if they are the owner, all otherwise. The data model carries no
// team membership, so team-scoped document permissions only ever apply
// through role-level grants, never a per-document relation check here.
func documentScopeFor(userID uuid.UUID, doc storage.Document) storage.Scope {
	if doc.OwnerID == userID {
		return storage.ScopeOwn
	}
	return storage.ScopeAll
}

// GetDocument loads a document then checks read permission at the scope
// implied by ownership.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := documentIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.Store.Documents.GetByID(r.Context(), s.Pool, id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "document not found")
		return
	}

	allowed, err := s.RBAC.HasPermission(r.Context(), userID, "documents", "read", documentScopeFor(userID, doc))
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "permission check failed")
		return
	}
	if !allowed {
		helpers.RespondError(w, http.StatusForbidden, "not permitted")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, documentResponse(doc))
}

// ListDocuments scopes the result set to the caller's own documents unless
// they hold documents:read:all; documents:read:team does not widen it, as
// there is no team membership to list by.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	hasAll, err := s.RBAC.HasPermission(r.Context(), userID, "documents", "read", storage.ScopeAll)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "permission check failed")
		return
	}

	var ownerFilter *uuid.UUID
	if !hasAll {
		ownerFilter = &userID
	}

	limit, offset := pagingParams(r)
	docs, total, err := s.Store.Documents.List(r.Context(), s.Pool, ownerFilter, limit, offset)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not list documents")
		return
	}

	payload := make([]documentPayload, 0, len(docs))
	for _, d := range docs {
		payload = append(payload, documentResponse(d))
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]any{"items": payload, "total": total})
}

// UpdateDocument checks update permission at the scope implied by
// ownership before writing.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := documentIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	existing, err := s.Store.Documents.GetByID(r.Context(), s.Pool, id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "document not found")
		return
	}
	allowed, err := s.RBAC.HasPermission(r.Context(), userID, "documents", "update", documentScopeFor(userID, existing))
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "permission check failed")
		return
	}
	if !allowed {
		helpers.RespondError(w, http.StatusForbidden, "not permitted")
		return
	}

	var req documentRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || req.Title == "" {
		helpers.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}

	var doc storage.Document
	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		var txErr error
		doc, txErr = s.Store.Documents.Update(r.Context(), tx, id, req.Title, req.Content, req.Meta)
		return txErr
	})
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not update document")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, documentResponse(doc))
}

// DeleteDocument checks delete permission (own or all — there is no
// delete:team in the catalogue) before removing the row.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := documentIDParam(r)
	if !ok {
		helpers.RespondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	existing, err := s.Store.Documents.GetByID(r.Context(), s.Pool, id)
	if err != nil {
		helpers.RespondError(w, http.StatusNotFound, "document not found")
		return
	}
	allowed, err := s.RBAC.HasPermission(r.Context(), userID, "documents", "delete", documentScopeFor(userID, existing))
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "permission check failed")
		return
	}
	if !allowed {
		helpers.RespondError(w, http.StatusForbidden, "not permitted")
		return
	}

	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		return s.Store.Documents.Delete(r.Context(), tx, id)
	})
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not delete document")
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
