package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/api/helpers"
	"github.com/genes8/docuguard/internal/apierr"
	"github.com/genes8/docuguard/internal/gate"
	"github.com/genes8/docuguard/internal/search"
	"github.com/genes8/docuguard/internal/storage"
)

type searchRequest struct {
	Query    string         `json:"query"`
	Mode     string         `json:"mode"`
	OwnerID  *uuid.UUID     `json:"owner_id"`
	DateFrom *time.Time     `json:"date_from"`
	DateTo   *time.Time     `json:"date_to"`
	Meta     map[string]any `json:"meta_contains"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type searchResultPayload struct {
	DocumentID uuid.UUID          `json:"document_id"`
	Title      string             `json:"title"`
	OwnerID    uuid.UUID          `json:"owner_id"`
	Rank       float64            `json:"rank"`
	Highlights []search.Highlight `json:"highlights"`
}

// Search runs the full-text/fuzzy engine, forcing owner_id to the caller
// whenever they lack documents:read:all — the same scope coupling that
// gates single-document reads.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req searchRequest
	if err := helpers.DecodeJSON(r, &req); err != nil || req.Query == "" {
		helpers.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}

	mode := search.Mode(req.Mode)
	switch mode {
	case search.ModeSimple, search.ModePhrase, search.ModeBoolean, search.ModeFuzzy:
	default:
		mode = search.ModeSimple
	}

	hasAll, err := s.RBAC.HasPermission(r.Context(), userID, "documents", "read", storage.ScopeAll)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "permission check failed")
		return
	}

	filters := search.Filters{DateFrom: req.DateFrom, DateTo: req.DateTo, MetaContains: req.Meta}
	if hasAll {
		filters.OwnerID = req.OwnerID
	} else {
		filters.OwnerID = &userID
	}

	results, total, err := s.Search.Search(r.Context(), req.Query, mode, filters, req.Page, req.PageSize)
	if err != nil {
		if _, ok := apierr.CodeOf(err); ok {
			helpers.RespondAPIErr(w, err)
			return
		}
		helpers.RespondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	payload := make([]searchResultPayload, 0, len(results))
	for _, res := range results {
		payload = append(payload, searchResultPayload{
			DocumentID: res.DocumentID, Title: res.Title, OwnerID: res.OwnerID,
			Rank: res.Rank, Highlights: res.Highlights,
		})
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]any{"items": payload, "total": total})
}

// Suggest returns autocomplete candidates, scoped the same way as Search.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		helpers.RespondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := pagingParams(r)

	hasAll, err := s.RBAC.HasPermission(r.Context(), userID, "documents", "read", storage.ScopeAll)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "permission check failed")
		return
	}
	var ownerFilter *uuid.UUID
	if !hasAll {
		ownerFilter = &userID
	}

	highlights, ids, err := s.Search.Suggest(r.Context(), q, limit, ownerFilter)
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "suggest failed")
		return
	}

	type suggestion struct {
		DocumentID uuid.UUID `json:"document_id"`
		Title      string    `json:"title"`
	}
	out := make([]suggestion, 0, len(ids))
	for i, id := range ids {
		out = append(out, suggestion{DocumentID: id, Title: highlights[i].Fragment})
	}
	helpers.RespondJSON(w, http.StatusOK, out)
}
