// Package api wires the HTTP surface: routing, request decoding, and the
// thin handlers that translate typed apierr results into status codes.
package api

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genes8/docuguard/internal/audit"
	"github.com/genes8/docuguard/internal/cache"
	"github.com/genes8/docuguard/internal/config"
	"github.com/genes8/docuguard/internal/credentials"
	"github.com/genes8/docuguard/internal/gate"
	"github.com/genes8/docuguard/internal/notify"
	"github.com/genes8/docuguard/internal/oidcclient"
	"github.com/genes8/docuguard/internal/ratelimit"
	"github.com/genes8/docuguard/internal/rbac"
	"github.com/genes8/docuguard/internal/search"
	"github.com/genes8/docuguard/internal/storage"
	"github.com/genes8/docuguard/internal/tokens"
)

// Server holds every collaborator a handler might need.
type Server struct {
	Pool        *pgxpool.Pool
	Store       *storage.Store
	Cache       *cache.Client
	Hasher      *credentials.Hasher
	Tokens      *tokens.Provider
	RefreshStore *tokens.RefreshStore
	Reset       *credentials.ResetService
	Limiter     *ratelimit.Limiter
	RBAC        *rbac.Evaluator
	Gate        *gate.Gate
	Search      *search.Engine
	OIDC        *oidcclient.Client
	Mailer      notify.Mailer
	Audit       *audit.Writer
	Logger      *slog.Logger
	Config      config.Config
}
