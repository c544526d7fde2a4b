package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/genes8/docuguard/internal/api/helpers"
	"github.com/genes8/docuguard/internal/oidcclient"
	"github.com/genes8/docuguard/internal/storage"
)

// OIDCAuthorize redirects the browser to the identity provider's
// authorization endpoint, having first bound state/nonce in the cache.
func (s *Server) OIDCAuthorize(w http.ResponseWriter, r *http.Request) {
	if s.OIDC == nil {
		helpers.RespondError(w, http.StatusNotImplemented, "oidc is not configured")
		return
	}
	url, err := s.OIDC.BeginLogin(r.Context())
	if err != nil {
		helpers.RespondError(w, http.StatusInternalServerError, "could not start oidc login")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// OIDCCallback exchanges the authorization code, resolves the local
// account (existing OIDC link, then email link, then new account), and
// issues a session the same way Login does.
func (s *Server) OIDCCallback(w http.ResponseWriter, r *http.Request) {
	if s.OIDC == nil {
		helpers.RespondError(w, http.StatusNotImplemented, "oidc is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		helpers.RespondError(w, http.StatusBadRequest, "missing state or code")
		return
	}

	identity, err := s.OIDC.Callback(r.Context(), state, code)
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "oidc callback failed")
		return
	}

	user, err := s.resolveOIDCUser(r, identity)
	if err != nil {
		helpers.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	s.issueSession(w, r, user.ID)
	helpers.RespondJSON(w, http.StatusOK, userResponse(user))
}

var errOIDCAccountConflict = errors.New("email is already linked to a different identity provider account")

// resolveOIDCUser implements the account-resolution order: an existing
// user already linked to this exact (issuer, subject) wins outright; an
// account sharing the email with no OIDC identity bound yet is linked in
// place (email_verified is not consulted); any
// other email owner already linked to a different OIDC identity is a
// conflict; otherwise a new account is created with a generated unique
// username.
func (s *Server) resolveOIDCUser(r *http.Request, identity oidcclient.Identity) (storage.User, error) {
	if existing, err := s.Store.Users.GetByOIDCIdentity(r.Context(), s.Pool, identity.Issuer, identity.Subject); err == nil {
		_ = s.Store.Users.UpdateLastLogin(r.Context(), s.Pool, existing.ID, time.Now())
		return existing, nil
	}

	var user storage.User
	err := s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		byEmail, err := s.Store.Users.GetByEmail(r.Context(), tx, identity.Email)
		switch {
		case err == nil && byEmail.OIDCSubject == nil:
			if linkErr := s.Store.Users.LinkOIDC(r.Context(), tx, byEmail.ID, identity.Issuer, identity.Subject); linkErr != nil {
				return linkErr
			}
			user = byEmail
			user.OIDCIssuer = &identity.Issuer
			user.OIDCSubject = &identity.Subject
			return nil
		case err == nil:
			return errOIDCAccountConflict
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		username, uErr := s.uniqueUsernameFor(r, tx, identity)
		if uErr != nil {
			return uErr
		}
		user, err = s.Store.Users.Create(r.Context(), tx, storage.CreateUserParams{
			Email: identity.Email, Username: username, AuthProvider: storage.ProviderOIDC,
			OIDCSubject: &identity.Subject, OIDCIssuer: &identity.Issuer, IsVerified: identity.EmailVerified,
		})
		if err != nil {
			return err
		}
		role, err := s.Store.Roles.GetByName(r.Context(), tx, "User")
		if err != nil {
			return err
		}
		return s.Store.Roles.AssignToUser(r.Context(), tx, user.ID, role.ID, nil)
	})
	return user, err
}

// usernameCandidateBase derives a username base from an identity's claims,
// preferring preferred_username, then name, then given_name+family_name,
// and falling back to the email local-part only if none of those are set.
func usernameCandidateBase(identity oidcclient.Identity) string {
	var raw string
	switch {
	case identity.PreferredUsername != "":
		raw = identity.PreferredUsername
	case identity.Name != "":
		raw = identity.Name
	case identity.GivenName != "" || identity.FamilyName != "":
		raw = identity.GivenName + identity.FamilyName
	default:
		raw = strings.SplitN(identity.Email, "@", 2)[0]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '.' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	base := b.String()
	if len(base) < 3 {
		base = base + "user"
	}
	return base
}

// uniqueUsernameFor derives a candidate username from the identity's
// claims and appends a numeric suffix until it is free.
func (s *Server) uniqueUsernameFor(r *http.Request, tx storage.DBTX, identity oidcclient.Identity) (string, error) {
	base := usernameCandidateBase(identity)
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.Store.Users.UsernameTaken(r.Context(), tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}
