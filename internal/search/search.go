// Package search implements the full-text/fuzzy document search engine
// (component J): simple, phrase, boolean, and fuzzy query modes against
// Postgres tsvector and pg_trgm, with ranking, highlighting, and filters.
// The engine does not consult RBAC; owner scoping comes from the caller
// through Filters.OwnerID.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genes8/docuguard/internal/apierr"
)

// Mode selects how the raw query string is turned into a tsquery (or, for
// fuzzy, how similarity is computed).
type Mode string

const (
	ModeSimple  Mode = "simple"
	ModePhrase  Mode = "phrase"
	ModeBoolean Mode = "boolean"
	ModeFuzzy   Mode = "fuzzy"
)

const fuzzyThreshold = 0.3

// Filters narrow a search beyond the query string itself.
type Filters struct {
	OwnerID     *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
	MetaContains map[string]any
}

// Highlight marks a matched fragment in one field of a result document.
type Highlight struct {
	Field    string
	Fragment string
}

// Result pairs a document with its rank and highlighted fragments.
type Result struct {
	DocumentID uuid.UUID
	Title      string
	Content    *string
	OwnerID    uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Rank       float64
	Highlights []Highlight
}

// Engine executes searches directly against Postgres; it reads, never
// writes, so it operates on the pool rather than inside the mutation
// unit-of-work.
type Engine struct {
	pool *pgxpool.Pool
}

// New wires a search engine against the connection pool.
func New(pool *pgxpool.Pool) *Engine {
	return &Engine{pool: pool}
}

// Search runs query in the given mode, applying filters and pagination,
// and returns the page of results plus the total match count.
func (e *Engine) Search(ctx context.Context, query string, mode Mode, f Filters, page, pageSize int) ([]Result, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if mode == ModeBoolean {
		if err := validateBooleanQuery(query); err != nil {
			return nil, 0, err
		}
	}

	if mode == ModeFuzzy {
		return e.searchFuzzy(ctx, query, f, offset, pageSize)
	}
	return e.searchFTS(ctx, query, mode, f, offset, pageSize)
}

// validateBooleanQuery rejects boolean-mode query strings that would make
// Postgres's to_tsquery raise a syntax error (unbalanced parentheses, a
// leading/trailing operator) before they ever reach the database.
func validateBooleanQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return apierr.New(apierr.CodeValidationFailure, "query must not be empty")
	}

	depth := 0
	for _, r := range trimmed {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return apierr.New(apierr.CodeValidationFailure, "unbalanced parentheses in boolean query")
			}
		}
	}
	if depth != 0 {
		return apierr.New(apierr.CodeValidationFailure, "unbalanced parentheses in boolean query")
	}

	if strings.HasPrefix(trimmed, "&") || strings.HasPrefix(trimmed, "|") ||
		strings.HasSuffix(trimmed, "&") || strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, "!") {
		return apierr.New(apierr.CodeValidationFailure, "boolean query cannot start or end with an operator")
	}
	return nil
}

// asValidationError maps a Postgres tsquery syntax error (42601) or
// malformed-input error (22P02) raised deep inside to_tsquery to the
// validation-failure taxonomy entry, so a handler never has to guess at
// the meaning of a bare Postgres error code.
func asValidationError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "42601" || pgErr.Code == "22P02") {
		return apierr.Wrap(apierr.CodeValidationFailure, "invalid search query syntax", err)
	}
	return err
}

func tsqueryFunc(mode Mode) string {
	switch mode {
	case ModePhrase:
		return "phraseto_tsquery"
	case ModeBoolean:
		return "to_tsquery"
	default:
		return "plainto_tsquery"
	}
}

func (e *Engine) searchFTS(ctx context.Context, query string, mode Mode, f Filters, offset, pageSize int) ([]Result, int64, error) {
	fn := tsqueryFunc(mode)

	var conds []string
	args := []any{query}
	conds = append(conds, fmt.Sprintf("d.search_vector @@ %s('english', $1)", fn))
	args = appendFilterConditions(&conds, args, f)

	where := strings.Join(conds, " AND ")

	countQ := fmt.Sprintf(`SELECT count(*) FROM documents d WHERE %s`, where)
	var total int64
	if err := e.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		if vErr := asValidationError(err); vErr != err {
			return nil, 0, vErr
		}
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	limitArg := len(args) + 1
	offsetArg := len(args) + 2
	mainQ := fmt.Sprintf(`
		SELECT d.id, d.title, d.content, d.owner_id, d.created_at, d.updated_at,
		       ts_rank(d.search_vector, %s('english', $1)) AS rank,
		       ts_headline('english', d.title, %s('english', $1), 'StartSel=<b>, StopSel=</b>, MaxWords=50, MinWords=10') AS title_hl,
		       ts_headline('english', coalesce(d.content, ''), %s('english', $1), 'StartSel=<b>, StopSel=</b>, MaxWords=50, MinWords=10, MaxFragments=3') AS content_hl
		FROM documents d
		WHERE %s
		ORDER BY rank DESC
		LIMIT $%d OFFSET $%d`, fn, fn, fn, where, limitArg, offsetArg)

	args = append(args, pageSize, offset)
	rows, err := e.pool.Query(ctx, mainQ, args...)
	if err != nil {
		if vErr := asValidationError(err); vErr != err {
			return nil, 0, vErr
		}
		return nil, 0, fmt.Errorf("execute search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var titleHL, contentHL string
		if err := rows.Scan(&r.DocumentID, &r.Title, &r.Content, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt, &r.Rank, &titleHL, &contentHL); err != nil {
			return nil, 0, fmt.Errorf("scan search result: %w", err)
		}
		if strings.Contains(titleHL, "<b>") {
			r.Highlights = append(r.Highlights, Highlight{Field: "title", Fragment: titleHL})
		}
		if strings.Contains(contentHL, "<b>") {
			r.Highlights = append(r.Highlights, Highlight{Field: "content", Fragment: contentHL})
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

func (e *Engine) searchFuzzy(ctx context.Context, query string, f Filters, offset, pageSize int) ([]Result, int64, error) {
	var conds []string
	args := []any{query}
	conds = append(conds, "(similarity(d.title, $1) > 0.3 OR similarity(coalesce(d.content, ''), $1) > 0.3)")
	args = appendFilterConditions(&conds, args, f)

	where := strings.Join(conds, " AND ")

	countQ := fmt.Sprintf(`SELECT count(*) FROM documents d WHERE %s`, where)
	var total int64
	if err := e.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count fuzzy search results: %w", err)
	}

	limitArg := len(args) + 1
	offsetArg := len(args) + 2
	mainQ := fmt.Sprintf(`
		SELECT d.id, d.title, d.content, d.owner_id, d.created_at, d.updated_at,
		       similarity(d.title, $1) AS title_sim,
		       similarity(coalesce(d.content, ''), $1) AS content_sim,
		       similarity(d.title, $1) * 2 + similarity(coalesce(d.content, ''), $1) AS combined_sim
		FROM documents d
		WHERE %s
		ORDER BY combined_sim DESC
		LIMIT $%d OFFSET $%d`, where, limitArg, offsetArg)

	args = append(args, pageSize, offset)
	rows, err := e.pool.Query(ctx, mainQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("execute fuzzy search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var titleSim, contentSim, combined float64
		if err := rows.Scan(&r.DocumentID, &r.Title, &r.Content, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt, &titleSim, &contentSim, &combined); err != nil {
			return nil, 0, fmt.Errorf("scan fuzzy result: %w", err)
		}
		r.Rank = combined
		if titleSim > fuzzyThreshold {
			r.Highlights = append(r.Highlights, Highlight{Field: "title", Fragment: r.Title})
		}
		if contentSim > fuzzyThreshold && r.Content != nil {
			r.Highlights = append(r.Highlights, Highlight{Field: "content", Fragment: truncate(*r.Content, 200)})
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// Suggest returns up to limit document titles whose text contains the
// query prefix (autocomplete), optionally scoped to one owner.
func (e *Engine) Suggest(ctx context.Context, query string, limit int, ownerID *uuid.UUID) ([]Highlight, []uuid.UUID, error) {
	const q = `
		SELECT id, title FROM documents
		WHERE title ILIKE '%' || $1 || '%' AND ($2::uuid IS NULL OR owner_id = $2)
		LIMIT $3`
	rows, err := e.pool.Query(ctx, q, query, ownerID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("suggest: %w", err)
	}
	defer rows.Close()

	var texts []Highlight
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, nil, err
		}
		texts = append(texts, Highlight{Field: "title", Fragment: title})
		ids = append(ids, id)
	}
	return texts, ids, rows.Err()
}

func appendFilterConditions(conds *[]string, args []any, f Filters) []any {
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		*conds = append(*conds, fmt.Sprintf("d.owner_id = $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		*conds = append(*conds, fmt.Sprintf("d.created_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		*conds = append(*conds, fmt.Sprintf("d.created_at <= $%d", len(args)))
	}
	if f.MetaContains != nil {
		data, _ := json.Marshal(f.MetaContains)
		args = append(args, data)
		*conds = append(*conds, fmt.Sprintf("d.meta @> $%d::jsonb", len(args)))
	}
	return args
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
