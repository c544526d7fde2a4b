package api

import (
	"log/slog"
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	customMiddleware "github.com/genes8/docuguard/internal/api/middleware"
	"github.com/genes8/docuguard/internal/storage"
)

// NewRouter builds the full HTTP surface: core middleware, then public
// auth/oidc routes, then the authenticated group, then permission-gated
// subgroups per resource.
func (s *Server) NewRouter() *chi.Mux {
	r := chi.NewRouter()

	// 1. Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// 2. Sentry (before panic recovery so it can capture the panic too)
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	r.Use(sentryHandler.Handle)

	// 3. Logging & recovery
	r.Use(customMiddleware.RequestLogger)
	r.Use(customMiddleware.PanicRecovery)

	// 4. CORS
	r.Use(customMiddleware.CORS(s.Config.CORSOrigins))

	requireAuth := s.Gate.Authenticate

	r.Get("/health", s.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Post("/auth/register", s.Register)
		r.Post("/auth/login", s.Login)
		r.Post("/auth/refresh", s.Refresh)
		r.Post("/auth/password/reset", s.RequestPasswordReset)
		r.Post("/auth/password/reset/confirm", s.ConfirmPasswordReset)

		// Public OIDC routes
		r.Get("/oidc/authorize", s.OIDCAuthorize)
		r.Get("/oidc/callback", s.OIDCCallback)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/logout", s.Logout)
			r.Get("/auth/me", s.Me)
			r.Post("/auth/change-password", s.ChangePassword)

			r.Post("/search", s.Search)
			r.Get("/search/suggestions", s.Suggest)

			r.Route("/documents", func(r chi.Router) {
				r.With(s.Gate.Require("documents", "create", storage.ScopeOwn)).Post("/", s.CreateDocument)
				r.With(s.Gate.Require("documents", "read", storage.ScopeOwn)).Get("/", s.ListDocuments)
				r.With(s.Gate.Require("documents", "read", storage.ScopeOwn)).Get("/{id}", s.GetDocument)
				r.With(s.Gate.Require("documents", "update", storage.ScopeOwn)).Put("/{id}", s.UpdateDocument)
				r.With(s.Gate.Require("documents", "delete", storage.ScopeOwn)).Delete("/{id}", s.DeleteDocument)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.With(s.Gate.Require("permissions", "read", storage.ScopeAll)).Get("/", s.ListPermissions)
			})

			r.Route("/roles", func(r chi.Router) {
				r.With(s.Gate.Require("roles", "read", storage.ScopeAll)).Get("/", s.ListRoles)
				r.With(s.Gate.Require("roles", "create", storage.ScopeAll)).Post("/", s.CreateRole)
				r.With(s.Gate.Require("roles", "read", storage.ScopeAll)).Get("/{id}", s.GetRole)
				r.With(s.Gate.Require("roles", "update", storage.ScopeAll)).Put("/{id}", s.UpdateRole)
				r.With(s.Gate.Require("roles", "delete", storage.ScopeAll)).Delete("/{id}", s.DeleteRole)
				r.With(s.Gate.Require("roles", "update", storage.ScopeAll)).Post("/{id}/permissions", s.AttachRolePermissions)
				r.With(s.Gate.Require("roles", "update", storage.ScopeAll)).Delete("/{id}/permissions/{pid}", s.DetachRolePermission)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(s.Gate.Require("users", "read", storage.ScopeAll)).Get("/", s.ListUsers)
				r.With(s.Gate.Require("users", "update", storage.ScopeAll)).Post("/bulk/roles", s.BulkAssignRole)
				r.With(s.Gate.Require("users", "read", storage.ScopeAll)).Get("/{userID}/roles", s.ListUserRoles)
				r.With(s.Gate.Require("users", "update", storage.ScopeAll)).Post("/{userID}/roles", s.AssignUserRole)
				r.With(s.Gate.Require("users", "update", storage.ScopeAll)).Delete("/{userID}/roles/{rid}", s.RemoveUserRole)
			})
		})
	})

	return r
}

// Health reports liveness, pinging the database pool.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.Pool.Ping(r.Context()); err != nil {
		s.Logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
