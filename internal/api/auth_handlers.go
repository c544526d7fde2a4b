package api

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/api/helpers"
	"github.com/genes8/docuguard/internal/apierr"
	"github.com/genes8/docuguard/internal/gate"
	"github.com/genes8/docuguard/internal/ratelimit"
	"github.com/genes8/docuguard/internal/storage"
	"github.com/genes8/docuguard/internal/tokens"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r registerRequest) validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apierr.New(apierr.CodeValidationFailure, "invalid email format")
	}
	if len(r.Username) < 3 {
		return apierr.New(apierr.CodeValidationFailure, "username must be at least 3 characters")
	}
	if len(r.Password) < 8 {
		return apierr.New(apierr.CodeValidationFailure, "password must be at least 8 characters")
	}
	return nil
}

// Register creates a local user and assigns the default "User" role.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	ip := helpers.GetRealIP(r).String()
	if res := s.Limiter.Check(r.Context(), "register", ip, ratelimit.ProfileRegister); !res.Allowed {
		writeRateLimited(w, res.RetryAfterSecs)
		return
	}

	var req registerRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeValidationFailure, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		helpers.RespondAPIErr(w, err)
		return
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "could not process password", err))
		return
	}

	var user storage.User
	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		var txErr error
		user, txErr = s.Store.Users.Create(r.Context(), tx, storage.CreateUserParams{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: &hash,
			AuthProvider: storage.ProviderLocal,
		})
		if txErr != nil {
			return txErr
		}
		role, txErr := s.Store.Roles.GetByName(r.Context(), tx, "User")
		if txErr != nil {
			return txErr
		}
		return s.Store.Roles.AssignToUser(r.Context(), tx, user.ID, role.ID, nil)
	})
	if err != nil {
		s.Logger.Warn("registration failed", "error", err)
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeDomainRefusal, "email or username already in use"))
		return
	}

	helpers.RespondJSON(w, http.StatusCreated, userResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, issues a token pair, binds the refresh
// token, and sets the access/refresh cookies.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ip := helpers.GetRealIP(r).String()
	if res := s.Limiter.Check(r.Context(), "login", ip, ratelimit.ProfileLogin); !res.Allowed {
		writeRateLimited(w, res.RetryAfterSecs)
		return
	}

	var req loginRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeValidationFailure, "invalid request body"))
		return
	}

	user, err := s.Store.Users.GetByEmail(r.Context(), s.Pool, req.Email)
	if err != nil || user.PasswordHash == nil || !s.Hasher.Verify(*user.PasswordHash, req.Password) {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "invalid email or password"))
		return
	}
	if !user.IsActive {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "account is disabled"))
		return
	}

	s.Limiter.Reset(r.Context(), "login", ip)
	_ = s.Store.Users.UpdateLastLogin(r.Context(), s.Pool, user.ID, time.Now())

	s.issueSession(w, r, user.ID)
	helpers.RespondJSON(w, http.StatusOK, userResponse(user))
}

func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	access, accessExp, err := s.Tokens.IssueAccessToken(userID)
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "could not issue session", err))
		return
	}
	refresh, refreshExp, err := s.Tokens.IssueRefreshToken(userID)
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "could not issue session", err))
		return
	}
	s.RefreshStore.Bind(r.Context(), userID, refresh, time.Until(refreshExp))

	http.SetCookie(w, &http.Cookie{
		Name: "access_token", Value: access, Path: "/",
		Expires: accessExp, HttpOnly: true, Secure: s.Config.CookieSecure, SameSite: sameSite(s.Config.CookieSameSite), Domain: s.Config.CookieDomain,
	})
	http.SetCookie(w, &http.Cookie{
		Name: "refresh_token", Value: refresh, Path: "/api/v1/auth",
		Expires: refreshExp, HttpOnly: true, Secure: s.Config.CookieSecure, SameSite: sameSite(s.Config.CookieSameSite), Domain: s.Config.CookieDomain,
	})
}

func sameSite(v string) http.SameSite {
	switch v {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Refresh rotates the refresh token: the presented token must match the
// one currently bound for that user, after which a new pair is issued and
// bound, invalidating the old token (rotation, not reuse).
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := refreshTokenFromRequest(r)
	if raw == "" {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "missing refresh token"))
		return
	}

	claims, err := s.Tokens.ParseAs(raw, tokens.TypeRefresh)
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeInvalidCredentials, "invalid or expired refresh token", err))
		return
	}

	if !s.RefreshStore.IsBound(r.Context(), claims.UserID, raw) {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeTokenRevoked, "refresh token has been superseded"))
		return
	}

	user, err := s.Store.Users.GetByID(r.Context(), s.Pool, claims.UserID)
	if err != nil || !user.IsActive {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "account inactive"))
		return
	}

	s.issueSession(w, r, user.ID)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("refresh_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := helpers.DecodeJSON(r, &body); err == nil {
		return body.RefreshToken
	}
	return ""
}

// Logout revokes the bound refresh token and clears both cookies.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err == nil {
		s.RefreshStore.Revoke(r.Context(), userID)
	}
	clearCookie(w, "access_token", "/")
	clearCookie(w, "refresh_token", "/api/v1/auth")
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: path, Expires: time.Unix(0, 0), HttpOnly: true, MaxAge: -1})
}

// Me returns the authenticated principal.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "unauthenticated"))
		return
	}
	user, err := s.Store.Users.GetByID(r.Context(), s.Pool, userID)
	if err != nil {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeNotFound, "user not found"))
		return
	}
	helpers.RespondJSON(w, http.StatusOK, userResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the password after verifying the current one,
// and invalidates the existing refresh binding so other sessions must
// re-authenticate.
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := gate.UserID(r.Context())
	if err != nil {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "unauthenticated"))
		return
	}

	var req changePasswordRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeValidationFailure, "invalid request body"))
		return
	}
	if len(req.NewPassword) < 8 {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeValidationFailure, "password must be at least 8 characters"))
		return
	}

	user, err := s.Store.Users.GetByID(r.Context(), s.Pool, userID)
	if err != nil || user.PasswordHash == nil || !s.Hasher.Verify(*user.PasswordHash, req.CurrentPassword) {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeInvalidCredentials, "current password is incorrect"))
		return
	}

	newHash, err := s.Hasher.Hash(req.NewPassword)
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "could not process password", err))
		return
	}

	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		return s.Store.Users.UpdatePasswordHash(r.Context(), tx, userID, newHash)
	})
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "could not update password", err))
		return
	}

	s.RefreshStore.Revoke(r.Context(), userID)
	clearCookie(w, "access_token", "/")
	clearCookie(w, "refresh_token", "/api/v1/auth")
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset always answers 200 regardless of whether the email
// is registered, so the response cannot be used to enumerate accounts.
func (s *Server) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	ip := helpers.GetRealIP(r).String()
	if res := s.Limiter.Check(r.Context(), "password_reset", ip, ratelimit.ProfilePasswordReset); !res.Allowed {
		writeRateLimited(w, res.RetryAfterSecs)
		return
	}

	var req resetRequest
	if err := helpers.DecodeJSON(r, &req); err == nil && req.Email != "" {
		if user, err := s.Store.Users.GetByEmail(r.Context(), s.Pool, req.Email); err == nil {
			token, err := s.Reset.Create(r.Context(), user.ID, user.Email)
			if err == nil {
				_ = s.Mailer.SendTransactional(r.Context(), user.Email, "password_reset", map[string]any{"token": token})
			}
		}
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "if_registered_email_sent"})
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset consumes a reset token and sets a new password.
func (s *Server) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeValidationFailure, "invalid request body"))
		return
	}
	if len(req.NewPassword) < 8 {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeValidationFailure, "password must be at least 8 characters"))
		return
	}

	userID, _, ok := s.Reset.Verify(r.Context(), req.Token)
	if !ok {
		helpers.RespondAPIErr(w, apierr.New(apierr.CodeValidationFailure, "reset token is invalid or expired"))
		return
	}

	hash, err := s.Hasher.Hash(req.NewPassword)
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "could not process password", err))
		return
	}

	err = s.Store.WithTx(r.Context(), func(tx storage.DBTX) error {
		return s.Store.Users.UpdatePasswordHash(r.Context(), tx, userID, hash)
	})
	if err != nil {
		helpers.RespondAPIErr(w, apierr.Wrap(apierr.CodeUpstreamFailure, "could not update password", err))
		return
	}

	s.Reset.Invalidate(r.Context(), req.Token, userID)
	s.RefreshStore.Revoke(r.Context(), userID)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	helpers.RespondAPIErr(w, apierr.RateLimited("too many requests", retryAfter))
}

type userPayload struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	AuthProvider string    `json:"auth_provider"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
}

func userResponse(u storage.User) userPayload {
	return userPayload{
		ID: u.ID, Email: u.Email, Username: u.Username,
		AuthProvider: string(u.AuthProvider), IsActive: u.IsActive, IsVerified: u.IsVerified,
	}
}
