package gate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genes8/docuguard/internal/apierr"
	"github.com/genes8/docuguard/internal/rbac"
	"github.com/genes8/docuguard/internal/storage"
	"github.com/genes8/docuguard/internal/tokens"
)

// Gate extracts a bearer credential, validates it, loads the user, and
// (via Require) enforces a declared permission requirement.
type Gate struct {
	tokenProvider *tokens.Provider
	pool          *pgxpool.Pool
	store         *storage.Store
	rbac          *rbac.Evaluator
	logger        *slog.Logger
}

// New wires a gate against its collaborators.
func New(tokenProvider *tokens.Provider, pool *pgxpool.Pool, store *storage.Store, evaluator *rbac.Evaluator, logger *slog.Logger) *Gate {
	return &Gate{tokenProvider: tokenProvider, pool: pool, store: store, rbac: evaluator, logger: logger}
}

func extractBearer(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func writeAPIErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), apierr.StatusForErr(err))
}

// Authenticate validates the bearer credential and rejects inactive
// users, binding the principal's ID into the request context.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r)
		if raw == "" {
			writeAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "missing credential"))
			return
		}

		claims, err := g.tokenProvider.ParseAs(raw, tokens.TypeAccess)
		if err != nil {
			g.logger.Warn("invalid access token", slog.String("error", err.Error()))
			writeAPIErr(w, apierr.Wrap(apierr.CodeInvalidCredentials, "invalid or expired token", err))
			return
		}

		user, err := g.store.Users.GetByID(r.Context(), g.pool, claims.UserID)
		if err != nil || !user.IsActive {
			writeAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "account inactive or missing"))
			return
		}

		ctx := WithUserID(r.Context(), user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate behaves like Authenticate but lets the request
// through unauthenticated when the credential is missing, invalid or
// expired, or names a missing or inactive user, for endpoints whose
// behavior only partially depends on identity.
func (g *Gate) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := g.tokenProvider.ParseAs(raw, tokens.TypeAccess)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := g.store.Users.GetByID(r.Context(), g.pool, claims.UserID)
		if err != nil || !user.IsActive {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), user.ID)))
	})
}

// Require builds a middleware enforcing that the authenticated principal
// holds a permission satisfying (resource, action, scope).
func (g *Gate) Require(resource, action string, scope storage.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserID(r.Context())
			if err != nil {
				writeAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "unauthenticated"))
				return
			}

			ok, err := g.rbac.HasPermission(r.Context(), userID, resource, action, scope)
			if err != nil {
				writeAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "permission check failed", err))
				return
			}
			if !ok {
				writeAPIErr(w, apierr.New(apierr.CodeForbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
